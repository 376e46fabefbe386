package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/lantianz/lantz-tmail/mdir"
	"github.com/lantianz/lantz-tmail/provider"
	"github.com/lantianz/lantz-tmail/term"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read id [address]",
	Short: "Display the content of one message",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRead,
}

var readFlags struct {
	save string
	html bool
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVarP(&readFlags.save, "save", "s", "", "save the raw message into a maildir at this path")
	readCmd.Flags().BoolVar(&readFlags.html, "html", false, "display the HTML body instead of the plain text one")
}

func runRead(cmd *cobra.Command, args []string) error {
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

	response := p.GetEmailContent(context.Background(), provider.ContentRequest{
		Address:     entry.Address,
		AccessToken: entry.AccessToken,
		ID:          args[0],
	})
	if !response.Success {
		return response.Error
	}
	content := response.Data

	term.Infof("From:    %s", content.From)
	term.Infof("Subject: %s", content.Subject)
	term.Infof("Date:    %s", content.ReceivedAt.Local())
	if readFlags.html && content.HTML != "" {
		fmt.Println(content.HTML)
	} else if content.Text != "" {
		fmt.Println(content.Text)
	} else if content.HTML != "" {
		term.Warn("No plain text body, displaying HTML")
		fmt.Println(content.HTML)
	} else {
		term.Warn("This message has no readable body")
	}

	for _, attachment := range content.Attachments {
		term.Infof("Attachment %s: %s (%s, %d bytes)",
			attachment.ID, attachment.Filename, attachment.ContentType, attachment.Size)
	}

	if readFlags.save == "" {
		return nil
	}
	if len(content.Raw) == 0 {
		return fmt.Errorf("no raw source available for message %s", args[0])
	}
	archive, err := mdir.New(readFlags.save)
	if err != nil {
		return err
	}
	if global.verbose {
		archive.DebugLogger(cmdLogger())
	}
	flags := []string{}
	if content.Seen {
		flags = append(flags, imap.SeenFlag)
	}
	key, err := archive.Save(entry.Address, flags, bytes.NewReader(content.Raw))
	if err != nil {
		return fmt.Errorf("cannot save message: %w", err)
	}
	term.Infof("Message saved in %s (key %s)", archive.Root(), key)
	return nil
}
