package remote

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lantianz/lantz-tmail/lib"
	"github.com/lantianz/lantz-tmail/mailbox"
	"github.com/lantianz/lantz-tmail/provider"
	"github.com/lantianz/lantz-tmail/session"
)

const providerName = "imap"

// ProviderConfig wires a Provider to its mailbox account and token codec.
type ProviderConfig struct {
	Credentials         mailbox.Credentials
	Codec               session.Codec
	NoTLS               bool
	SkipTLSVerification bool
	DialTimeout         time.Duration
	DownloadRate        float64
	MaxIdle             time.Duration
	SweepInterval       time.Duration
	Logger              lib.Logger
}

// Provider serves temporary mailboxes on top of a real IMAP account. It is
// stateless between requests: everything needed to serve a call travels in
// the access token.
type Provider struct {
	creds mailbox.Credentials
	codec session.Codec
	pool  *Pool
	log   lib.Logger
}

var _ provider.Provider = &Provider{}

func NewProvider(cfg ProviderConfig) *Provider {
	log := cfg.Logger
	if log == nil {
		log = &lib.NoLog{}
	}
	dial := func(creds mailbox.Credentials) (*Client, error) {
		return Connect(Config{
			Credentials:         creds,
			NoTLS:               cfg.NoTLS,
			SkipTLSVerification: cfg.SkipTLSVerification,
			DialTimeout:         cfg.DialTimeout,
			DownloadRate:        cfg.DownloadRate,
			Logger:              log,
		})
	}
	return &Provider{
		creds: cfg.Credentials.WithDefaults(),
		codec: cfg.Codec,
		pool: NewPool(PoolOptions{
			Dial:          dial,
			MaxIdle:       cfg.MaxIdle,
			SweepInterval: cfg.SweepInterval,
			Logger:        log,
		}),
		log: log,
	}
}

func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) Capabilities() provider.Capability {
	return provider.CapCreate | provider.CapList | provider.CapContent |
		provider.CapDelete | provider.CapWait
}

// Close stops the pool and logs out every pooled session.
func (p *Provider) Close() {
	p.pool.Stop()
}

// CreateEmail provisions a temporary address on the configured domain and
// verifies the backing account with a one-shot connection before handing out
// the token. The probe is deliberately not pooled: a failed creation must not
// leave a session behind.
func (p *Provider) CreateEmail(_ context.Context, req provider.CreateRequest) provider.Response[provider.CreatedEmail] {
	const op = "CreateEmail"
	started := time.Now()

	localPart := req.LocalPart
	if localPart == "" {
		localPart = lib.RandomLocalPart(lib.DefaultLocalPartLength)
	}
	address := fmt.Sprintf("%s@%s", localPart, p.creds.Domain)

	if err := p.probe(); err != nil {
		return provider.Fail[provider.CreatedEmail](providerName, started, provider.Classify(op, err))
	}

	token, err := p.codec.Encode(session.Session{
		Address:     address,
		Credentials: p.creds,
	})
	if err != nil {
		return provider.Fail[provider.CreatedEmail](providerName, started, provider.Classify(op, err))
	}

	p.log.Printf("created address %s", address)
	return provider.Succeed(providerName, started, provider.CreatedEmail{
		Address:     address,
		Domain:      p.creds.Domain,
		Username:    localPart,
		AccessToken: token,
	})
}

// ListEmails returns the recent messages for the temporary address, newest
// first.
func (p *Provider) ListEmails(_ context.Context, req provider.ListRequest) provider.Response[[]mailbox.Summary] {
	const op = "ListEmails"
	started := time.Now()

	sess, cerr := p.decodeSession(op, req.Address, req.AccessToken)
	if cerr != nil {
		return provider.Fail[[]mailbox.Summary](providerName, started, cerr)
	}

	conn, err := p.pool.Acquire(sess.Credentials)
	if err != nil {
		return provider.Fail[[]mailbox.Summary](providerName, started, provider.Classify(op, err))
	}
	summaries, err := conn.ListRecent(sess.Address)
	p.finish(conn, op, err)
	if err != nil {
		return provider.Fail[[]mailbox.Summary](providerName, started, provider.Classify(op, err))
	}
	return provider.Succeed(providerName, started, summaries)
}

// GetEmailContent returns one message with its bodies and attachment
// metadata.
func (p *Provider) GetEmailContent(_ context.Context, req provider.ContentRequest) provider.Response[mailbox.Content] {
	const op = "GetEmailContent"
	started := time.Now()

	sess, cerr := p.decodeSession(op, req.Address, req.AccessToken)
	if cerr != nil {
		return provider.Fail[mailbox.Content](providerName, started, cerr)
	}
	uid, cerr := parseID(op, req.ID)
	if cerr != nil {
		return provider.Fail[mailbox.Content](providerName, started, cerr)
	}

	conn, err := p.pool.Acquire(sess.Credentials)
	if err != nil {
		return provider.Fail[mailbox.Content](providerName, started, provider.Classify(op, err))
	}
	content, err := conn.FetchContent(uid)
	p.finish(conn, op, err)
	if err != nil {
		return provider.Fail[mailbox.Content](providerName, started, provider.Classify(op, err))
	}
	return provider.Succeed(providerName, started, *content)
}

// DeleteEmail removes one message from the backing mailbox.
func (p *Provider) DeleteEmail(_ context.Context, req provider.DeleteRequest) provider.Response[struct{}] {
	const op = "DeleteEmail"
	started := time.Now()

	sess, cerr := p.decodeSession(op, req.Address, req.AccessToken)
	if cerr != nil {
		return provider.Fail[struct{}](providerName, started, cerr)
	}
	uid, cerr := parseID(op, req.ID)
	if cerr != nil {
		return provider.Fail[struct{}](providerName, started, cerr)
	}

	conn, err := p.pool.Acquire(sess.Credentials)
	if err != nil {
		return provider.Fail[struct{}](providerName, started, provider.Classify(op, err))
	}
	if err = conn.Select(); err == nil {
		err = conn.Delete(uid)
	}
	p.finish(conn, op, err)
	if err != nil {
		return provider.Fail[struct{}](providerName, started, provider.Classify(op, err))
	}
	p.log.Printf("deleted message %d for %s", uid, sess.Address)
	return provider.Succeed(providerName, started, struct{}{})
}

// WaitForEmail blocks until a message for the temporary address arrives, the
// context expires or the poll interval loop is stopped. It returns the
// current list, which is empty on timeout rather than an error.
func (p *Provider) WaitForEmail(ctx context.Context, req provider.ListRequest, interval time.Duration) provider.Response[[]mailbox.Summary] {
	const op = "WaitForEmail"
	started := time.Now()

	sess, cerr := p.decodeSession(op, req.Address, req.AccessToken)
	if cerr != nil {
		return provider.Fail[[]mailbox.Summary](providerName, started, cerr)
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	for {
		conn, err := p.pool.Acquire(sess.Credentials)
		if err != nil {
			return provider.Fail[[]mailbox.Summary](providerName, started, provider.Classify(op, err))
		}
		summaries, err := conn.ListRecent(sess.Address)
		if err != nil {
			p.finish(conn, op, err)
			return provider.Fail[[]mailbox.Summary](providerName, started, provider.Classify(op, err))
		}
		if len(summaries) > 0 || ctx.Err() != nil {
			conn.Release()
			return provider.Succeed(providerName, started, summaries)
		}

		err = conn.WaitUpdate(ctx.Done(), interval)
		p.finish(conn, op, err)
		if err != nil {
			return provider.Fail[[]mailbox.Summary](providerName, started, provider.Classify(op, err))
		}
	}
}

// Health verifies connectivity to the backing account with a one-shot
// connection.
func (p *Provider) Health(_ context.Context) provider.Response[provider.HealthReport] {
	const op = "Health"
	started := time.Now()

	if err := p.probe(); err != nil {
		return provider.Fail[provider.HealthReport](providerName, started, provider.Classify(op, err))
	}
	return provider.Succeed(providerName, started, provider.HealthReport{
		Healthy: true,
		Elapsed: time.Since(started),
	})
}

// probe opens, exercises and closes a fresh connection outside the pool.
func (p *Provider) probe() error {
	client, err := p.pool.dial(p.creds)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Logout()
	}()
	return client.Select()
}

// decodeSession validates the token and checks that it belongs to the
// requested address. A token replayed against another address is rejected as
// invalid, not as missing mail.
func (p *Provider) decodeSession(op, address, token string) (session.Session, *provider.Error) {
	sess, err := p.codec.Decode(token)
	if err != nil {
		return sess, provider.Classify(op, err)
	}
	if err = p.codec.CheckExpiry(sess); err != nil {
		return sess, provider.Classify(op, err)
	}
	if address != "" && !lib.SameAddress(sess.Address, address) {
		return sess, provider.NewError(provider.KindInvalidToken, op,
			"the access token does not match the requested address", nil)
	}
	if err = sess.Credentials.Validate(); err != nil {
		return sess, provider.NewError(provider.KindInvalidToken, op,
			"the access token carries incomplete credentials", err)
	}
	return sess, nil
}

// parseID converts a message identifier back into a UID. An unparseable ID
// can never match a message, so it reports the same way as a missing one.
func parseID(op, id string) (uint32, *provider.Error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil || uid == 0 {
		return 0, provider.NewError(provider.KindAPI, op, "the message was not found", err)
	}
	return uint32(uid), nil
}

// finish returns the connection to the pool, or drops it when the failure
// looks like a broken transport.
func (p *Provider) finish(conn *Conn, op string, err error) {
	if err == nil {
		conn.Release()
		return
	}
	if classified := provider.Classify(op, err); classified.Kind == provider.KindNetwork {
		conn.Discard()
		return
	}
	conn.Release()
}
