package session

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/lantianz/lantz-tmail/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() Session {
	return Session{
		Address: "abc123@domain.test",
		Credentials: mailbox.Credentials{
			Domain:   "domain.test",
			Host:     "imap.domain.test",
			Port:     993,
			Username: "catchall@domain.test",
			Password: "secret",
			Folder:   "INBOX",
		},
	}
}

func TestRoundTripPlain(t *testing.T) {
	codec := Codec{}
	token, err := codec.Encode(sampleSession())
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, sampleSession().Address, decoded.Address)
	assert.Equal(t, sampleSession().Credentials, decoded.Credentials)
	assert.WithinDuration(t, time.Now(), decoded.IssuedAt, time.Minute)
}

func TestRoundTripEncrypted(t *testing.T) {
	codec := Codec{Encrypt: true, Secret: "a very secret passphrase"}
	token, err := codec.Encode(sampleSession())
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, sampleSession().Address, decoded.Address)
	assert.Equal(t, sampleSession().Credentials, decoded.Credentials)
}

func TestTokensNeverRepeat(t *testing.T) {
	for _, codec := range []Codec{
		{},
		{Encrypt: true, Secret: "a very secret passphrase"},
	} {
		first, err := codec.Encode(sampleSession())
		require.NoError(t, err)
		second, err := codec.Encode(sampleSession())
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	}
}

func TestEncodeMissingSecret(t *testing.T) {
	codec := Codec{Encrypt: true}
	_, err := codec.Encode(sampleSession())
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestDecodeMissingSecret(t *testing.T) {
	token, err := Codec{Encrypt: true, Secret: "secret"}.Encode(sampleSession())
	require.NoError(t, err)

	_, err = Codec{Encrypt: true}.Decode(token)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestTamperedTokenIsRejected(t *testing.T) {
	codec := Codec{Encrypt: true, Secret: "a very secret passphrase"}
	token, err := codec.Encode(sampleSession())
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)

	// flipping any single byte of IV, tag or ciphertext must fail
	// authentication, never decode to a different session
	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01
		_, err = codec.Decode(base64.StdEncoding.EncodeToString(tampered))
		assert.ErrorIs(t, err, ErrInvalidToken, "byte %d", i)
	}
}

func TestDecodeGarbage(t *testing.T) {
	for _, token := range []string{
		"not base64 !!",
		base64.StdEncoding.EncodeToString([]byte("not json")),
		base64.StdEncoding.EncodeToString([]byte("short")),
	} {
		_, err := Codec{}.Decode(token)
		if err == nil {
			_, err = Codec{Encrypt: true, Secret: "secret"}.Decode(token)
		}
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestCheckExpiry(t *testing.T) {
	old := sampleSession()
	old.IssuedAt = time.Now().Add(-2 * time.Hour)

	// expired when TTL is one hour
	codec := Codec{TTL: time.Hour}
	assert.ErrorIs(t, codec.CheckExpiry(old), ErrTokenExpired)

	// same session passes with no TTL
	assert.NoError(t, Codec{}.CheckExpiry(old))

	// fresh session passes
	fresh := sampleSession()
	fresh.IssuedAt = time.Now()
	assert.NoError(t, codec.CheckExpiry(fresh))

	// session predating the expiry feature never expires
	assert.NoError(t, codec.CheckExpiry(sampleSession()))
}

func TestExpiredTokenEndToEnd(t *testing.T) {
	codec := Codec{Encrypt: true, Secret: "secret", TTL: time.Hour}

	s := sampleSession()
	s.IssuedAt = time.Now().Add(-2 * time.Hour)
	token, err := codec.encode(s)
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.ErrorIs(t, codec.CheckExpiry(decoded), ErrTokenExpired)
}
