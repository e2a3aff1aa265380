package logutil_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGetOrDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("request_id", "abc").Logger()

	ctx := logutil.WithLogger(context.Background(), logger)
	got := logutil.GetOrDefault(ctx)
	got.Info().Msg("hello")

	require.Contains(t, buf.String(), `"request_id":"abc"`)
	require.Contains(t, buf.String(), `"message":"hello"`)
}

func TestGetOrDefault_NoLogger(t *testing.T) {
	require.NotPanics(t, func() {
		l := logutil.GetOrDefault(context.Background())
		l.Debug().Msg("global logger")
	})
}
