package cmd

import (
	"context"
	"time"

	"github.com/lantianz/lantz-tmail/provider"
	"github.com/lantianz/lantz-tmail/term"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [address]",
	Short: "Wait for a message to arrive",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

var watchFlags struct {
	timeout  time.Duration
	interval time.Duration
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVarP(&watchFlags.timeout, "timeout", "t", 5*time.Minute, "give up after this long")
	watchCmd.Flags().DurationVarP(&watchFlags.interval, "interval", "i", 30*time.Second, "poll interval when the server does not push updates")
}

func runWatch(cmd *cobra.Command, args []string) error {
	address := ""
	if len(args) > 0 {
		address = args[0]
	}

	addressBook, err := openStore()
	if err != nil {
		return err
	}
	entry, err := resolveEntry(addressBook, address)
	_ = addressBook.Close()
	if err != nil {
		return err
	}

	p, err := newProvider()
	if err != nil {
		return err
	}
	defer p.Close()

	term.Infof("Waiting up to %s for a message to %s...", watchFlags.timeout, entry.Address)
	ctx, cancel := context.WithTimeout(context.Background(), watchFlags.timeout)
	defer cancel()

	response := p.WaitForEmail(ctx, provider.ListRequest{
		Address:     entry.Address,
		AccessToken: entry.AccessToken,
	}, watchFlags.interval)
	if !response.Success {
		return response.Error
	}
	if len(response.Data) == 0 {
		term.Warnf("No message arrived within %s", watchFlags.timeout)
		return nil
	}
	return displaySummaries(response.Data)
}
