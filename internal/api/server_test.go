package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mindjournal/pkg/config"
	"github.com/wonny/mindjournal/pkg/logger"
)

func TestServer_ServeUntilCancelled(t *testing.T) {
	cfg := &config.Config{Port: "0", Journal: config.JournalConfig{Source: config.SourceFixture}}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	server := New(cfg, logger.Nop(), handler)

	var hooked atomic.Bool
	done := make(chan struct{})
	server.OnShutdown(func() {
		hooked.Store(true)
		close(done)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	<-done
	assert.True(t, hooked.Load())

	_, err = http.Get("http://" + ln.Addr().String() + "/")
	assert.Error(t, err, "listener is closed after shutdown")
}

func TestServer_RunBadAddress(t *testing.T) {
	cfg := &config.Config{Port: "not-a-port"}
	server := New(cfg, logger.Nop(), http.NotFoundHandler())

	err := server.Run(context.Background())
	assert.Error(t, err)
}
