package profilecache_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-chat-portal/internal/profilecache"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	c, err := profilecache.New(time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.Enabled())

	_, ok := c.Get("token-a")
	require.False(t, ok)

	require.NoError(t, c.Set("token-a", []byte(`{"data":{"name":"Alice"}}`)))
	body, ok := c.Get("token-a")
	require.True(t, ok)
	require.JSONEq(t, `{"data":{"name":"Alice"}}`, string(body))
	require.Equal(t, 1, c.Len())

	_, ok = c.Get("token-b")
	require.False(t, ok)

	c.Invalidate("token-a")
	_, ok = c.Get("token-a")
	require.False(t, ok)
}

func TestDisabledCache(t *testing.T) {
	c, err := profilecache.New(0)
	require.NoError(t, err)
	require.False(t, c.Enabled())

	require.NoError(t, c.Set("token-a", []byte("x")))
	_, ok := c.Get("token-a")
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
	require.NoError(t, c.Close())
}

func TestEmptyTokenIsNeverCached(t *testing.T) {
	c, err := profilecache.New(time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set("", []byte("x")))
	_, ok := c.Get("")
	require.False(t, ok)
}
