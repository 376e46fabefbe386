package remote

import (
	"sort"
	"time"

	"github.com/emersion/go-imap"
	"github.com/lantianz/lantz-tmail/lib"
	"github.com/lantianz/lantz-tmail/mailbox"
)

// ListWindow is how far back the query engine looks for messages.
const ListWindow = 24 * time.Hour

var summaryItems = []imap.FetchItem{
	imap.FetchEnvelope,
	imap.FetchFlags,
	imap.FetchInternalDate,
	imap.FetchRFC822Size,
	imap.FetchUid,
}

// ListRecent returns the messages of the last 24 hours addressed exactly to
// the temporary address, newest first. An empty result is not an error.
func (c *Client) ListRecent(address string) ([]mailbox.Summary, error) {
	if err := c.Select(); err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-ListWindow)
	uids, err := c.SearchSince(cutoff)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return []mailbox.Summary{}, nil
	}
	c.log.Printf("found %d messages since %s", len(uids), cutoff)

	messages, err := c.FetchByUID(uids, summaryItems)
	if err != nil {
		return nil, err
	}

	summaries := make([]mailbox.Summary, 0, len(messages))
	for _, msg := range messages {
		// SEARCH SINCE is date-granular: re-check the exact cutoff
		if msg.InternalDate.Before(cutoff) {
			continue
		}
		if !lib.ContainsAddress(recipients(msg.Envelope), address) {
			continue
		}
		summaries = append(summaries, summaryFromMessage(msg))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].ReceivedAt.Equal(summaries[j].ReceivedAt) {
			return summaries[i].ID > summaries[j].ID
		}
		return summaries[i].ReceivedAt.After(summaries[j].ReceivedAt)
	})
	return summaries, nil
}

// recipients is the full To/Cc/Bcc address set used for exact matching.
func recipients(envelope *imap.Envelope) []string {
	if envelope == nil {
		return nil
	}
	addresses := make([]string, 0, len(envelope.To)+len(envelope.Cc)+len(envelope.Bcc))
	addresses = append(addresses, addressList(envelope.To)...)
	addresses = append(addresses, addressList(envelope.Cc)...)
	addresses = append(addresses, addressList(envelope.Bcc)...)
	return addresses
}

func addressList(addresses []*imap.Address) []string {
	list := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if address == nil {
			continue
		}
		list = append(list, address.Address())
	}
	return list
}

func summaryFromMessage(msg *imap.Message) mailbox.Summary {
	summary := mailbox.Summary{
		ID:         msg.Uid,
		ReceivedAt: msg.InternalDate,
		Size:       msg.Size,
	}
	for _, flag := range msg.Flags {
		if flag == imap.SeenFlag {
			summary.Seen = true
		}
	}
	if envelope := msg.Envelope; envelope != nil {
		if len(envelope.From) > 0 && envelope.From[0] != nil {
			summary.From = envelope.From[0].Address()
		}
		summary.To = addressList(envelope.To)
		summary.Cc = addressList(envelope.Cc)
		summary.Subject = envelope.Subject
		summary.MessageID = envelope.MessageId
		if summary.ReceivedAt.IsZero() {
			summary.ReceivedAt = envelope.Date
		}
	}
	return summary
}
