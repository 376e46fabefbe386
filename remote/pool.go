package remote

import (
	"sync"
	"time"

	"github.com/lantianz/lantz-tmail/lib"
	"github.com/lantianz/lantz-tmail/mailbox"
)

const (
	DefaultMaxIdle       = 10 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// DialFunc opens a new live session for a credential set.
type DialFunc func(mailbox.Credentials) (*Client, error)

// PoolOptions configure a Pool. Thresholds are fixed at construction, never
// derived dynamically.
type PoolOptions struct {
	Dial          DialFunc
	MaxIdle       time.Duration
	SweepInterval time.Duration
	Logger        lib.Logger
}

// Pool owns the live sessions, one entry per "host:port:username" key.
// Map mutation is guarded by one mutex; use of an individual session is
// serialized by a per-entry mutex held from Acquire to Release, so two
// concurrent requests for the same credentials never interleave protocol
// commands on one session.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry
	dial    DialFunc
	maxIdle time.Duration
	log     lib.Logger
	stop    chan struct{}
	stopped chan struct{}
}

type poolEntry struct {
	mu       sync.Mutex
	client   *Client
	lastUsed time.Time
}

// NewPool creates the pool and starts the background sweep.
func NewPool(options PoolOptions) *Pool {
	if options.MaxIdle <= 0 {
		options.MaxIdle = DefaultMaxIdle
	}
	if options.SweepInterval <= 0 {
		options.SweepInterval = DefaultSweepInterval
	}
	if options.Logger == nil {
		options.Logger = &lib.NoLog{}
	}
	pool := &Pool{
		entries: make(map[string]*poolEntry),
		dial:    options.Dial,
		maxIdle: options.MaxIdle,
		log:     options.Logger,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go pool.sweepLoop(options.SweepInterval)
	return pool
}

// Conn is a borrowed session. Exactly one of Release or Discard must be
// called when the request is done.
type Conn struct {
	*Client
	pool     *Pool
	key      string
	entry    *poolEntry
	finished bool
}

// Acquire returns a live session for the credentials, reusing a pooled one
// when its liveness probe succeeds. A connection failure never populates the
// pool.
func (p *Pool) Acquire(creds mailbox.Credentials) (*Conn, error) {
	creds = creds.WithDefaults()
	key := creds.Key()
	for {
		p.mu.Lock()
		entry, found := p.entries[key]
		if !found {
			entry = &poolEntry{}
			entry.mu.Lock()
			p.entries[key] = entry
			p.mu.Unlock()

			client, err := p.dial(creds)
			if err != nil {
				p.forget(key, entry)
				entry.mu.Unlock()
				return nil, err
			}
			p.log.Printf("pool: new connection for %s", key)
			entry.client = client
			entry.lastUsed = time.Now()
			return &Conn{Client: client, pool: p, key: key, entry: entry}, nil
		}
		p.mu.Unlock()

		entry.mu.Lock()
		if entry.client == nil || !entry.client.Live() || entry.client.Noop() != nil {
			// stale or evicted while we were waiting: drop and retry
			p.evict(key, entry)
			entry.mu.Unlock()
			continue
		}
		p.log.Printf("pool: reusing connection for %s", key)
		entry.lastUsed = time.Now()
		return &Conn{Client: entry.client, pool: p, key: key, entry: entry}, nil
	}
}

// Release returns the session to the pool. The connection stays open until
// the sweep evicts it.
func (c *Conn) Release() {
	if c.finished {
		return
	}
	c.finished = true
	c.entry.lastUsed = time.Now()
	c.entry.mu.Unlock()
}

// Discard drops the session from the pool, for use after a transport error
// so a poisoned entry is never reused.
func (c *Conn) Discard() {
	if c.finished {
		return
	}
	c.finished = true
	c.pool.evict(c.key, c.entry)
	c.entry.mu.Unlock()
}

// Remove evicts the entry for the credentials, waiting for any borrower to
// finish first. Never call it while holding a Conn for the same key: use
// Discard instead.
func (p *Pool) Remove(creds mailbox.Credentials) {
	key := creds.WithDefaults().Key()
	p.mu.Lock()
	entry, found := p.entries[key]
	p.mu.Unlock()
	if !found {
		return
	}
	entry.mu.Lock()
	p.evict(key, entry)
	entry.mu.Unlock()
}

// Len is the number of pooled entries.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Stop terminates the sweep and logs out every pooled session.
func (p *Pool) Stop() {
	close(p.stop)
	<-p.stopped

	p.mu.Lock()
	entries := make(map[string]*poolEntry, len(p.entries))
	for key, entry := range p.entries {
		entries[key] = entry
	}
	p.entries = make(map[string]*poolEntry)
	p.mu.Unlock()

	for key, entry := range entries {
		entry.mu.Lock()
		if entry.client != nil {
			_ = entry.client.Logout()
			entry.client = nil
		}
		entry.mu.Unlock()
		p.log.Printf("pool: closed connection for %s", key)
	}
}

// forget removes the map entry without touching the connection.
func (p *Pool) forget(key string, entry *poolEntry) {
	p.mu.Lock()
	if current, found := p.entries[key]; found && current == entry {
		delete(p.entries, key)
	}
	p.mu.Unlock()
}

// evict removes the entry and logs the connection out, best effort.
// The caller holds the entry lock.
func (p *Pool) evict(key string, entry *poolEntry) {
	p.forget(key, entry)
	if entry.client != nil {
		_ = entry.client.Logout()
		entry.client = nil
	}
	p.log.Printf("pool: evicted connection for %s", key)
}

func (p *Pool) sweepLoop(interval time.Duration) {
	defer close(p.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.stop:
			return
		}
	}
}

// sweep evicts entries idle for longer than the threshold or failing the
// liveness probe. Entries currently borrowed are skipped.
func (p *Pool) sweep() {
	p.mu.Lock()
	entries := make(map[string]*poolEntry, len(p.entries))
	for key, entry := range p.entries {
		entries[key] = entry
	}
	p.mu.Unlock()

	for key, entry := range entries {
		if !entry.mu.TryLock() {
			// in use
			continue
		}
		if entry.client != nil {
			idle := time.Since(entry.lastUsed)
			if idle > p.maxIdle || !entry.client.Live() || entry.client.Noop() != nil {
				p.log.Printf("pool: sweeping %s (idle %s)", key, idle.Truncate(time.Second))
				p.evict(key, entry)
			}
		}
		entry.mu.Unlock()
	}
}
