package remote

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/lantianz/lantz-tmail/lib"
	"github.com/lantianz/lantz-tmail/provider"
	"github.com/lantianz/lantz-tmail/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, server *testServer, codec session.Codec) *Provider {
	t.Helper()

	p := NewProvider(ProviderConfig{
		Credentials: server.creds,
		Codec:       codec,
		NoTLS:       true,
		DialTimeout: 10 * time.Second,
		Logger:      lib.NewTestLogger(t, "provider"),
	})
	t.Cleanup(p.Close)
	return p
}

func TestProviderCapabilities(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{})

	assert.Equal(t, "imap", p.Name())
	for _, capability := range []provider.Capability{
		provider.CapCreate, provider.CapList, provider.CapContent,
		provider.CapDelete, provider.CapWait,
	} {
		assert.True(t, p.Capabilities().Has(capability))
	}
}

func TestProviderEndToEnd(t *testing.T) {
	for _, encrypt := range []bool{false, true} {
		name := "plain"
		if encrypt {
			name = "encrypted"
		}
		t.Run(name, func(t *testing.T) {
			server := startTestServer(t)
			codec := session.Codec{Encrypt: encrypt, Secret: "test secret", TTL: time.Hour}
			p := newTestProvider(t, server, codec)
			ctx := context.Background()

			created := p.CreateEmail(ctx, provider.CreateRequest{})
			require.True(t, created.Success)
			assert.Equal(t, "imap", created.Provider)
			assert.False(t, created.Timestamp.IsZero())
			assert.Equal(t, testDomain, created.Data.Domain)
			assert.Contains(t, created.Data.Address, "@"+testDomain)
			assert.NotEmpty(t, created.Data.AccessToken)

			address := created.Data.Address
			token := created.Data.AccessToken

			server.append(t, time.Now(), multipartMessage(address, "verification"))
			server.append(t, time.Now(), plainMessage([]string{"other@" + testDomain}, nil, "not yours", "nope"))

			listed := p.ListEmails(ctx, provider.ListRequest{Address: address, AccessToken: token})
			require.True(t, listed.Success)
			require.Len(t, listed.Data, 1)
			assert.Equal(t, "verification", listed.Data[0].Subject)

			id := listed.Data[0].ID
			content := p.GetEmailContent(ctx, provider.ContentRequest{
				Address:     address,
				AccessToken: token,
				ID:          formatID(id),
			})
			require.True(t, content.Success)
			assert.Contains(t, content.Data.Text, "Your code is 123456")
			assert.Contains(t, content.Data.HTML, "<b>123456</b>")
			require.Len(t, content.Data.Attachments, 1)
			assert.Equal(t, "invoice.pdf", content.Data.Attachments[0].Filename)

			deleted := p.DeleteEmail(ctx, provider.DeleteRequest{
				Address:     address,
				AccessToken: token,
				ID:          formatID(id),
			})
			require.True(t, deleted.Success)

			listed = p.ListEmails(ctx, provider.ListRequest{Address: address, AccessToken: token})
			require.True(t, listed.Success)
			assert.Empty(t, listed.Data)
		})
	}
}

func TestProviderWrongCredentials(t *testing.T) {
	server := startTestServer(t)
	creds := server.creds
	creds.Password = "nope"
	p := NewProvider(ProviderConfig{
		Credentials: creds,
		NoTLS:       true,
		Logger:      lib.NewTestLogger(t, "provider"),
	})
	t.Cleanup(p.Close)

	response := p.CreateEmail(context.Background(), provider.CreateRequest{})
	require.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, provider.KindAuthentication, response.Error.Kind)
	assert.False(t, response.Error.Retryable)
	// raw server text stays out of the message
	assert.NotContains(t, response.Error.Message, "NO")
}

func TestProviderUnreachableServer(t *testing.T) {
	server := startTestServer(t)
	creds := server.creds
	creds.Port = 1 // nothing listens there
	p := NewProvider(ProviderConfig{
		Credentials: creds,
		NoTLS:       true,
		DialTimeout: 2 * time.Second,
		Logger:      lib.NewTestLogger(t, "provider"),
	})
	t.Cleanup(p.Close)

	response := p.Health(context.Background())
	require.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, provider.KindNetwork, response.Error.Kind)
	assert.True(t, response.Error.Retryable)
}

func TestProviderInvalidToken(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{Encrypt: true, Secret: "test secret"})

	response := p.ListEmails(context.Background(), provider.ListRequest{
		Address:     "abc@" + testDomain,
		AccessToken: "not even base64 !!",
	})
	require.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, provider.KindInvalidToken, response.Error.Kind)
}

func TestProviderTokenAddressMismatch(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{})
	ctx := context.Background()

	created := p.CreateEmail(ctx, provider.CreateRequest{LocalPart: "first"})
	require.True(t, created.Success)

	response := p.ListEmails(ctx, provider.ListRequest{
		Address:     "second@" + testDomain,
		AccessToken: created.Data.AccessToken,
	})
	require.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, provider.KindInvalidToken, response.Error.Kind)
}

func TestProviderExpiredToken(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{TTL: 50 * time.Millisecond})
	ctx := context.Background()

	created := p.CreateEmail(ctx, provider.CreateRequest{})
	require.True(t, created.Success)

	time.Sleep(100 * time.Millisecond)

	response := p.ListEmails(ctx, provider.ListRequest{
		Address:     created.Data.Address,
		AccessToken: created.Data.AccessToken,
	})
	require.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, provider.KindTokenExpired, response.Error.Kind)
}

func TestProviderMissingSecret(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{Encrypt: true})

	response := p.CreateEmail(context.Background(), provider.CreateRequest{})
	require.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, provider.KindConfiguration, response.Error.Kind)
}

func TestProviderUnparseableMessageID(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{})
	ctx := context.Background()

	created := p.CreateEmail(ctx, provider.CreateRequest{})
	require.True(t, created.Success)

	response := p.GetEmailContent(ctx, provider.ContentRequest{
		Address:     created.Data.Address,
		AccessToken: created.Data.AccessToken,
		ID:          "not-a-uid",
	})
	require.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, provider.KindAPI, response.Error.Kind)
	assert.Equal(t, "the message was not found", response.Error.Message)
}

func TestProviderCustomLocalPart(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{})

	created := p.CreateEmail(context.Background(), provider.CreateRequest{LocalPart: "myname"})
	require.True(t, created.Success)
	assert.Equal(t, "myname@"+testDomain, created.Data.Address)
	assert.Equal(t, "myname", created.Data.Username)
}

func TestProviderTokensNeverRepeat(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{})
	ctx := context.Background()

	first := p.CreateEmail(ctx, provider.CreateRequest{LocalPart: "same"})
	require.True(t, first.Success)
	second := p.CreateEmail(ctx, provider.CreateRequest{LocalPart: "same"})
	require.True(t, second.Success)

	assert.NotEqual(t, first.Data.AccessToken, second.Data.AccessToken)
}

func TestProviderWaitForEmail(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created := p.CreateEmail(ctx, provider.CreateRequest{})
	require.True(t, created.Success)
	address := created.Data.Address

	go func() {
		time.Sleep(300 * time.Millisecond)
		server.append(t, time.Now(), plainMessage([]string{address}, nil, "finally", "here it is"))
	}()

	response := p.WaitForEmail(ctx, provider.ListRequest{
		Address:     address,
		AccessToken: created.Data.AccessToken,
	}, 200*time.Millisecond)
	require.True(t, response.Success)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "finally", response.Data[0].Subject)
}

func TestProviderWaitForEmailTimesOut(t *testing.T) {
	server := startTestServer(t)
	p := newTestProvider(t, server, session.Codec{})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	created := p.CreateEmail(ctx, provider.CreateRequest{})
	require.True(t, created.Success)

	response := p.WaitForEmail(ctx, provider.ListRequest{
		Address:     created.Data.Address,
		AccessToken: created.Data.AccessToken,
	}, 100*time.Millisecond)
	require.True(t, response.Success)
	assert.Empty(t, response.Data)
}

func formatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
