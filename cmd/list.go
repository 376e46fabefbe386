package cmd

import (
	"context"
	"strconv"
	"time"

	"github.com/lantianz/lantz-tmail/mailbox"
	"github.com/lantianz/lantz-tmail/provider"
	"github.com/lantianz/lantz-tmail/term"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [address]",
	Short: "Display the recent messages of a temporary address",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	response := p.ListEmails(context.Background(), provider.ListRequest{
		Address:     entry.Address,
		AccessToken: entry.AccessToken,
	})
	if !response.Success {
		return response.Error
	}

	if len(response.Data) == 0 {
		term.Infof("No message for %s", entry.Address)
		return nil
	}
	return displaySummaries(response.Data)
}

func displaySummaries(summaries []mailbox.Summary) error {
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		seen := ""
		if summary.Seen {
			seen = "seen"
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(summary.ID), 10),
			summary.ReceivedAt.Local().Format(time.Stamp),
			summary.From,
			summary.Subject,
			seen,
		})
	}
	return term.Table([]string{"ID", "Received", "From", "Subject", ""}, rows)
}
