// Package httpserver runs an http.Server until its context is cancelled and
// then shuts it down gracefully.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-chat-portal/internal/logutil"
)

// ShutdownTimeout bounds how long in-flight requests get to finish.
var ShutdownTimeout = 10 * time.Second

// Serve listens on bind and blocks until ctx is done or the listener fails.
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	server := http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute * 5,
	}
	err := make(chan error, 1)
	done := make(chan struct{})
	go serveInBackground(ctx, &server, err, done)
	<-done
	return <-err
}

func serveInBackground(ctx context.Context, server *http.Server, firstErr chan<- error, done chan<- struct{}) {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Logger()
	defer close(done)
	serverCtx, cancel := context.WithCancel(ctx)
	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		defer cancel()
		log.Info().Msg("Starting HTTP server")
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			log.Info().Msg("Server closed")
			return
		} else if err != nil {
			select {
			case firstErr <- err:
			default:
			}
		}
	}()
	select {
	case <-serverCtx.Done():
	case <-ctx.Done():
	}
	if ctx.Err() != nil {
		log.Info().Msg("Initiating shutdown process")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("Shutdown did not complete cleanly")
		} else {
			log.Info().Msg("Shutdown completed")
		}
	}
	<-listenDone
	close(firstErr)
}
