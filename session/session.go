package session

import (
	"time"

	"github.com/lantianz/lantz-tmail/mailbox"
)

// Session is everything needed to serve requests for one temporary address.
// It only ever travels inside the opaque token: the server keeps no state
// between requests.
type Session struct {
	// Address is the temporary address handed out to the caller.
	Address string `json:"address"`
	// Credentials of the real mailbox receiving the messages.
	Credentials mailbox.Credentials `json:"credentials"`
	// IssuedAt is stamped on encoding. Tokens minted before the expiry
	// feature have no issuedAt and decode to the zero time, which is
	// treated as non-expiring.
	IssuedAt time.Time `json:"issuedAt"`
}
