package cmd

import (
	"os"

	"github.com/lantianz/lantz-tmail/cfg"
	"github.com/lantianz/lantz-tmail/term"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tmail",
	Short: "Disposable mailboxes on top of a catch-all IMAP account",
	Long:  "\nDisposable mailboxes on top of a catch-all IMAP account",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig, initLog)
	flag := rootCmd.PersistentFlags()
	flag.StringVarP(&global.configFile, "config", "c", "tmail.yaml", "configuration file")
	flag.BoolVarP(&global.quiet, "quiet", "q", false, "only display warnings and errors")
	flag.BoolVarP(&global.verbose, "verbose", "v", false, "display debugging information")
	flag.StringVarP(&global.account, "account", "a", "", "account name (optional when only one is configured)")
}

func initConfig() {
	var err error
	config, err = cfg.LoadFromFile(global.configFile)
	if err != nil {
		term.Errorf("cannot open or read configuration file: %s", err)
		os.Exit(1)
	}
}

func initLog() {
	switch {
	case global.verbose:
		term.SetLevel(term.LevelDebug)
	case global.quiet:
		term.SetLevel(term.LevelWarn)
	}
}

func Execute(version, commit, date, builtBy string) {
	setApp(version, commit, date, builtBy)
	if err := rootCmd.Execute(); err != nil {
		term.Error(err)
		os.Exit(1)
	}
}
