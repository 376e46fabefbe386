package remote

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	compress "github.com/emersion/go-imap-compress"
	"github.com/emersion/go-imap/backend/memory"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
	"github.com/lantianz/lantz-tmail/lib"
	"github.com/lantianz/lantz-tmail/mailbox"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"
)

// The memory backend only knows one account: username / password.
const (
	testUsername = "username"
	testPassword = "password"
	testDomain   = "example.com"
)

type testServer struct {
	addr  string
	creds mailbox.Credentials
}

// startTestServer runs an in-memory IMAP server on a local listener.
// Since the server is for testing only, we can allow plain text
// authentication over non-encrypted connections.
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	be := memory.New()
	srv := server.New(be)
	srv.AllowInsecureAuth = true
	srv.Enable(compress.NewExtension())

	listener, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)

	t.Logf("Starting IMAP server at %s", listener.Addr().String())
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = srv.Serve(listener)
	}()
	t.Cleanup(func() {
		_ = srv.Close()
		wg.Wait()
	})

	time.Sleep(100 * time.Millisecond)

	addr := listener.Addr().String()
	host, portValue, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portValue)
	require.NoError(t, err)

	return &testServer{
		addr: addr,
		creds: mailbox.Credentials{
			Domain:   testDomain,
			Host:     host,
			Port:     port,
			Username: testUsername,
			Password: testPassword,
		},
	}
}

func (s *testServer) connect(t *testing.T) *Client {
	t.Helper()

	client, err := Connect(Config{
		Credentials: s.creds,
		NoTLS:       true,
		DialTimeout: 10 * time.Second,
		Logger:      lib.NewTestLogger(t, "client"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Logout()
	})
	return client
}

// append delivers a raw message into the account INBOX with the given
// internal date.
func (s *testServer) append(t *testing.T, date time.Time, raw string) {
	t.Helper()

	c, err := imapclient.Dial(s.addr)
	require.NoError(t, err)
	defer func() {
		_ = c.Logout()
	}()
	require.NoError(t, c.Login(testUsername, testPassword))
	require.NoError(t, c.Append("INBOX", nil, date, strings.NewReader(raw)))
}

// plainMessage builds a minimal single-part message.
func plainMessage(to, cc []string, subject, body string) string {
	lines := []string{
		"From: Sender <sender@example.org>",
		"To: " + strings.Join(to, ", "),
	}
	if len(cc) > 0 {
		lines = append(lines, "Cc: "+strings.Join(cc, ", "))
	}
	lines = append(lines,
		"Subject: "+subject,
		"Date: "+time.Now().Format(time.RFC1123Z),
		fmt.Sprintf("Message-ID: <%d@example.org>", time.Now().UnixNano()),
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	)
	return strings.Join(lines, "\r\n")
}

// multipartMessage builds a multipart/mixed message with a plain body, an
// HTML body and one attachment.
func multipartMessage(to, subject string) string {
	lines := []string{
		"From: Sender <sender@example.org>",
		"To: " + to,
		"Subject: " + subject,
		"Date: " + time.Now().Format(time.RFC1123Z),
		fmt.Sprintf("Message-ID: <%d@example.org>", time.Now().UnixNano()),
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="frontier"`,
		"",
		"--frontier",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Your code is 123456",
		"--frontier",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Your code is <b>123456</b></p>",
		"--frontier",
		`Content-Type: application/pdf; name="invoice.pdf"`,
		`Content-Disposition: attachment; filename="invoice.pdf"`,
		"Content-Transfer-Encoding: base64",
		"",
		"JVBERi0xLjQK",
		"--frontier--",
		"",
	}
	return strings.Join(lines, "\r\n")
}
