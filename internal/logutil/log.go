// Package logutil carries a zerolog.Logger through a context.Context so that
// request-scoped fields (request id, remote address) follow a request into
// the handlers and clients it reaches.
package logutil

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte
)

var (
	loggerKey = key(1)
)

// WithLogger returns a copy of ctx holding logger.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetOrDefault returns the logger stored in ctx, or the global logger.
func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}

// Setup configures the global zerolog logger. Development environments get
// a human readable console writer, everything else writes JSON lines.
func Setup(env, level string, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(env, "DEV") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
