package cmd

import (
	"context"
	"fmt"

	"github.com/lantianz/lantz-tmail/provider"
	"github.com/lantianz/lantz-tmail/store"
	"github.com/lantianz/lantz-tmail/term"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new temporary address",
	RunE:  runCreate,
}

var createFlags struct {
	name string
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createFlags.name, "name", "n", "", "local part of the address (random when empty)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	p, err := newProvider()
	if err != nil {
		return err
	}
	defer p.Close()

	response := p.CreateEmail(context.Background(), provider.CreateRequest{LocalPart: createFlags.name})
	if !response.Success {
		return response.Error
	}

	addressBook, err := openStore()
	if err != nil {
		return fmt.Errorf("cannot open local store: %w", err)
	}
	defer addressBook.Close()

	err = addressBook.Save(store.Entry{
		Address:     response.Data.Address,
		AccessToken: response.Data.AccessToken,
	})
	if err != nil {
		return fmt.Errorf("cannot save address: %w", err)
	}

	term.Infof("Created %s", response.Data.Address)
	term.Debugf("access token: %s", response.Data.AccessToken)
	return nil
}
