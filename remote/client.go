package remote

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	uidplus "github.com/emersion/go-imap-uidplus"
	"github.com/emersion/go-imap/client"
	"github.com/lantianz/lantz-tmail/lib"
	"github.com/lantianz/lantz-tmail/limitio"
	"github.com/lantianz/lantz-tmail/mailbox"
	"github.com/lantianz/lantz-tmail/provider"
)

// Config to open one live IMAP session.
type Config struct {
	Credentials         mailbox.Credentials
	NoTLS               bool
	SkipTLSVerification bool
	// DialTimeout covers connection establishment and the TLS handshake.
	DialTimeout time.Duration
	// DownloadRate caps part downloads in bytes per second; 0 is unlimited.
	DownloadRate float64
	Logger       lib.Logger
}

// Client is one live, logged-in IMAP session. It is not safe for concurrent
// use: the pool hands it to one borrower at a time.
type Client struct {
	client        *client.Client
	uidplusClient *uidplus.Client
	creds         mailbox.Credentials
	downloadRate  float64
	log           lib.Logger
}

// Connect dials the server, logs in and detects the UIDPLUS extension.
// A failed login never returns a half-open client.
func Connect(cfg Config) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = &lib.NoLog{}
	}
	creds := cfg.Credentials.WithDefaults()
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	addr := creds.Addr()

	var imapClient *client.Client
	var err error
	log.Printf("Connecting to server %s...", addr)
	if cfg.NoTLS {
		imapClient, err = client.DialWithDialer(dialer, addr)
	} else {
		tlsConfig := &tls.Config{ServerName: creds.Host}
		if cfg.SkipTLSVerification {
			tlsConfig.InsecureSkipVerify = true
		}
		imapClient, err = client.DialWithDialerTLS(dialer, addr, tlsConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot connect to server %s: %w", addr, err)
	}
	log.Print("Connected")

	if err := imapClient.Login(creds.Username, creds.Password); err != nil {
		_ = imapClient.Logout()
		return nil, fmt.Errorf("%w: %s", provider.ErrAuthenticationFailed, err)
	}
	log.Printf("Logged in as %s", creds.Username)

	if caps, err := imapClient.Capability(); err == nil {
		log.Printf("capabilities: %+v", caps)
	}

	// try to enable UIDPLUS extension
	uidExt := uidplus.NewClient(imapClient)
	supported, err := uidExt.SupportUidPlus()
	if err != nil || !supported {
		log.Print("IMAP server does NOT support UIDPLUS extension")
		uidExt = nil
	}

	return &Client{
		client:        imapClient,
		uidplusClient: uidExt,
		creds:         creds,
		downloadRate:  cfg.DownloadRate,
		log:           log,
	}, nil
}

func (c *Client) Logout() error {
	c.log.Print("Closing connection")
	return c.client.Logout()
}

// Live reports whether the underlying transport is still usable.
func (c *Client) Live() bool {
	return c.client.State() != imap.LogoutState
}

// Noop runs a NOOP round trip, the cheapest liveness probe the protocol has.
func (c *Client) Noop() error {
	return c.client.Noop()
}

func (c *Client) SupportUIDPlus() bool {
	return c.uidplusClient != nil
}

// Select opens the folder configured in the credentials.
func (c *Client) Select() error {
	folder := c.creds.Folder
	_, err := c.client.Select(folder, false)
	if err != nil {
		if isNoSuchMailbox(err) {
			return fmt.Errorf("%w: %q", provider.ErrMailboxNotFound, folder)
		}
		return fmt.Errorf("cannot select %q: %w", folder, err)
	}
	return nil
}

// SearchSince returns the UIDs of messages with an internal date on or after
// the given time. SEARCH SINCE has date granularity, so results need an exact
// re-check against the cutoff.
func (c *Client) SearchSince(since time.Time) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return uids, nil
}

// FetchByUID fetches the given items for every UID in the set.
func (c *Client) FetchByUID(uids []uint32, items []imap.FetchItem) ([]*imap.Message, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	receiver := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.client.UidFetch(seqset, items, receiver)
	}()

	messages := make([]*imap.Message, 0, len(uids))
	for msg := range receiver {
		messages = append(messages, msg)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	return messages, nil
}

// DownloadPart retrieves the raw bytes of one body part, optionally rate
// limited.
func (c *Client) DownloadPart(uid uint32, path []int) ([]byte, error) {
	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.EntireSpecifier,
			Path:      path,
		},
	}
	messages, err := c.FetchByUID([]uint32{uid}, []imap.FetchItem{section.FetchItem(), imap.FetchUid})
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("uid %d: %w", uid, provider.ErrMessageNotFound)
	}
	literal := messages[0].GetBody(section)
	if literal == nil {
		return nil, fmt.Errorf("no data for part %v of uid %d", path, uid)
	}
	reader := limitio.NewReader(literal)
	if c.downloadRate > 0 {
		reader.SetRateLimit(c.downloadRate, 32*1024)
	}
	return io.ReadAll(reader)
}

// Delete expunges one message, through UIDPLUS UID EXPUNGE when available so
// only the targeted UID is affected.
func (c *Client) Delete(uid uint32) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.DeletedFlag}
	if err := c.client.UidStore(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("cannot flag message %d as deleted: %w", uid, err)
	}

	if c.uidplusClient != nil {
		if err := c.uidplusClient.UidExpunge(seqset, nil); err != nil {
			return fmt.Errorf("cannot expunge message %d: %w", uid, err)
		}
		return nil
	}
	if err := c.client.Expunge(nil); err != nil {
		return fmt.Errorf("cannot expunge mailbox: %w", err)
	}
	return nil
}

func isNoSuchMailbox(err error) bool {
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "no such mailbox") ||
		strings.Contains(text, "doesn't exist") ||
		strings.Contains(text, "does not exist") ||
		strings.Contains(text, "not found")
}
