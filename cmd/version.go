package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tmail version %s\n", appVersion)
		if appCommit != "" {
			fmt.Printf("  commit %s built on %s by %s\n", appCommit, appDate, appBuiltBy)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
