package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, errors.Wrapf(nil, "context %d", 1))
	})

	t.Run("wrapped error keeps chain", func(t *testing.T) {
		err := errors.Wrapf(errors.ErrInvalidSession, "decode %s", "cookie")
		require.EqualError(t, err, "decode cookie: invalid session")
		require.True(t, errors.Is(err, errors.ErrInvalidSession))
		require.True(t, stderrors.Is(err, errors.ErrInvalidSession))
	})
}
