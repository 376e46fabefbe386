package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitUpdateReturnsOnInterval(t *testing.T) {
	server := startTestServer(t)
	client := server.connect(t)
	require.NoError(t, client.Select())

	started := time.Now()
	err := client.WaitUpdate(nil, 200*time.Millisecond)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 200*time.Millisecond)

	// the session must still be usable afterwards
	assert.NoError(t, client.Noop())
}

func TestWaitUpdateReturnsOnStop(t *testing.T) {
	server := startTestServer(t)
	client := server.connect(t)
	require.NoError(t, client.Select())

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- client.WaitUpdate(stop, time.Minute)
	}()

	time.Sleep(100 * time.Millisecond)
	close(stop)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitUpdate did not return after stop")
	}
}
