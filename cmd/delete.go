package cmd

import (
	"context"

	"github.com/lantianz/lantz-tmail/provider"
	"github.com/lantianz/lantz-tmail/term"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete id [address]",
	Short: "Delete one message from the mailbox",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	address := ""
	if len(args) > 1 {
		address = args[1]
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

	response := p.DeleteEmail(context.Background(), provider.DeleteRequest{
		Address:     entry.Address,
		AccessToken: entry.AccessToken,
		ID:          args[0],
	})
	if !response.Success {
		return response.Error
	}
	term.Infof("Deleted message %s", args[0])
	return nil
}
