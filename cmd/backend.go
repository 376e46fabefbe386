package cmd

import (
	"fmt"
	"time"

	"github.com/lantianz/lantz-tmail/lib"
	"github.com/lantianz/lantz-tmail/remote"
	"github.com/lantianz/lantz-tmail/session"
	"github.com/lantianz/lantz-tmail/store"
	"github.com/lantianz/lantz-tmail/term"
)

const defaultStoreFile = "tmail.db"

// newProvider builds the IMAP provider for the selected account.
func newProvider() (*remote.Provider, error) {
	account, err := config.Account(global.account)
	if err != nil {
		return nil, err
	}
	return remote.NewProvider(remote.ProviderConfig{
		Credentials:         account.Credentials(),
		Codec:               newCodec(),
		NoTLS:               account.NoTLS,
		SkipTLSVerification: account.SkipTLSVerification,
		DialTimeout:         config.Transport.DialTimeout(),
		DownloadRate:        float64(config.Transport.DownloadRateKB) * 1024,
		MaxIdle:             config.Pool.MaxIdle(),
		SweepInterval:       config.Pool.SweepInterval(),
		Logger:              cmdLogger(),
	}), nil
}

func newCodec() session.Codec {
	return session.Codec{
		Encrypt: config.Tokens.Encrypt,
		Secret:  config.Tokens.Secret,
		TTL:     time.Duration(config.Tokens.TTLHours) * time.Hour,
	}
}

func openStore() (*store.BoltStore, error) {
	filename := config.Store.File
	if filename == "" {
		filename = defaultStoreFile
	}
	return store.NewBoltStoreWithLogger(filename, cmdLogger())
}

// resolveEntry finds the address book entry to work with: the given address,
// or the most recently created one when none is given.
func resolveEntry(addressBook *store.BoltStore, address string) (store.Entry, error) {
	if address == "" {
		entry, err := addressBook.Latest()
		if err != nil {
			return entry, fmt.Errorf("no address given and none saved yet: %w", err)
		}
		return entry, nil
	}
	return addressBook.Get(address)
}

func cmdLogger() lib.Logger {
	if global.verbose {
		return &termLogger{}
	}
	return &lib.NoLog{}
}

type termLogger struct{}

func (l *termLogger) Print(a ...any) {
	term.Debug(a...)
}

func (l *termLogger) Printf(format string, a ...any) {
	term.Debugf(format, a...)
}
