package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/lantianz/lantz-tmail/provider"
	"github.com/lantianz/lantz-tmail/remote"
	"github.com/lantianz/lantz-tmail/term"
	"github.com/spf13/cobra"
	gomail "gopkg.in/gomail.v2"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify connectivity to the mailbox account",
	RunE:  runCheck,
}

var checkFlags struct {
	send    bool
	timeout time.Duration
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkFlags.send, "send", false, "also send a probe message to the latest saved address over SMTP and wait for it")
	checkCmd.Flags().DurationVarP(&checkFlags.timeout, "timeout", "t", 2*time.Minute, "how long to wait for the probe message")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := newProvider()
	if err != nil {
		return err
	}
	defer p.Close()

	response := p.Health(context.Background())
	if !response.Success {
		return response.Error
	}
	term.Infof("Mailbox reachable in %s", response.Data.Elapsed.Truncate(time.Millisecond))

	if !checkFlags.send {
		return nil
	}
	return sendProbe(p)
}

// sendProbe delivers a test message to the latest saved address and waits for
// it to come back through the query engine: the whole mail path end to end.
func sendProbe(p *remote.Provider) error {
	smtp := config.SMTP
	if smtp.Host == "" {
		return fmt.Errorf("no SMTP server configured, cannot send a probe")
	}

	addressBook, err := openStore()
	if err != nil {
		return err
	}
	entry, err := addressBook.Latest()
	_ = addressBook.Close()
	if err != nil {
		return fmt.Errorf("create an address first: %w", err)
	}

	message := gomail.NewMessage()
	message.SetHeader("From", smtp.Username)
	message.SetHeader("To", entry.Address)
	message.SetHeader("Subject", "tmail delivery probe")
	message.SetBody("text/plain", fmt.Sprintf("Probe sent at %s", time.Now().Format(time.RFC1123)))

	port := smtp.Port
	if port == 0 {
		port = 587
	}
	dialer := gomail.NewDialer(smtp.Host, port, smtp.Username, smtp.Password)
	if err = dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("cannot send probe message: %w", err)
	}
	term.Infof("Probe sent to %s, waiting up to %s for delivery...", entry.Address, checkFlags.timeout)

	ctx, cancel := context.WithTimeout(context.Background(), checkFlags.timeout)
	defer cancel()
	response := p.WaitForEmail(ctx, provider.ListRequest{
		Address:     entry.Address,
		AccessToken: entry.AccessToken,
	}, 15*time.Second)
	if !response.Success {
		return response.Error
	}
	if len(response.Data) == 0 {
		return fmt.Errorf("probe message did not arrive within %s", checkFlags.timeout)
	}
	term.Infof("Probe delivered after %s", response.Elapsed.Truncate(time.Millisecond))
	return nil
}
