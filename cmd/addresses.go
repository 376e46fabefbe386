package cmd

import (
	"time"

	"github.com/lantianz/lantz-tmail/term"
	"github.com/spf13/cobra"
)

var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "Display the saved temporary addresses",
	RunE:  runAddresses,
}

var forgetCmd = &cobra.Command{
	Use:   "forget address",
	Short: "Remove an address from the local store",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

func init() {
	rootCmd.AddCommand(addressesCmd)
	rootCmd.AddCommand(forgetCmd)
}

func runAddresses(cmd *cobra.Command, args []string) error {
	addressBook, err := openStore()
	if err != nil {
		return err
	}
	defer addressBook.Close()

	entries, err := addressBook.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		term.Info("No saved address")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.Address,
			entry.CreatedAt.Local().Format(time.RFC1123),
		})
	}
	return term.Table([]string{"Address", "Created"}, rows)
}

func runForget(cmd *cobra.Command, args []string) error {
	addressBook, err := openStore()
	if err != nil {
		return err
	}
	defer addressBook.Close()

	if err = addressBook.Delete(args[0]); err != nil {
		return err
	}
	term.Infof("Removed %s", args[0])
	return nil
}
