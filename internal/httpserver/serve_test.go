package httpserver_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-chat-portal/internal/httpserver"
	"github.com/stretchr/testify/require"
)

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpserver.Serve(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestServe_InvalidAddress(t *testing.T) {
	err := httpserver.Serve(context.Background(), "127.0.0.1:-1", http.NotFoundHandler())
	require.Error(t, err)
}
