package remote

import (
	"time"

	idle "github.com/emersion/go-imap-idle"
	"github.com/emersion/go-imap/client"
)

// WaitUpdate blocks until the server announces a mailbox change, the poll
// interval elapses or the stop channel closes. It uses IDLE when the server
// supports it and falls back to polling otherwise.
func (c *Client) WaitUpdate(stop <-chan struct{}, interval time.Duration) error {
	updates := make(chan client.Update, 16)
	c.client.Updates = updates
	defer func() {
		c.client.Updates = nil
	}()

	idleClient := idle.NewClient(c.client)

	idleStop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- idleClient.IdleWithFallback(idleStop, interval)
	}()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	var err error
	select {
	case <-updates:
		c.log.Print("mailbox update received")
	case <-timer.C:
	case <-stop:
	case err = <-done:
		return err
	}
	close(idleStop)
	<-done
	return err
}
