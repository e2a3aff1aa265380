// Package profilecache keeps recent account-info replies in memory so the
// profile page does not hit the backend on every render. Entries are keyed by
// a hash of the bearer token; raw tokens are never used as keys.
package profilecache

import (
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
)

type (
	Cache struct {
		cache *bigcache.BigCache
	}
)

// New returns a cache whose entries live for ttl. A non-positive ttl yields a
// disabled cache that never stores anything.
func New(ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		return &Cache{}, nil
	}

	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, err
	}
	return &Cache{cache: cache}, nil
}

// Enabled reports whether the cache stores entries.
func (c *Cache) Enabled() bool {
	return c != nil && c.cache != nil
}

func key(accessToken string) string {
	return strconv.FormatUint(xxhash.Sum64String(accessToken), 16)
}

// Get returns the cached body for accessToken.
func (c *Cache) Get(accessToken string) ([]byte, bool) {
	if !c.Enabled() || accessToken == "" {
		return nil, false
	}
	buf, err := c.cache.Get(key(accessToken))
	if err != nil {
		return nil, false
	}
	return buf, true
}

// Set stores body for accessToken.
func (c *Cache) Set(accessToken string, body []byte) error {
	if !c.Enabled() || accessToken == "" {
		return nil
	}
	return c.cache.Set(key(accessToken), body)
}

// Invalidate drops the entry for accessToken, if any.
func (c *Cache) Invalidate(accessToken string) {
	if !c.Enabled() || accessToken == "" {
		return
	}
	_ = c.cache.Delete(key(accessToken))
}

// Len is the number of live entries.
func (c *Cache) Len() int {
	if !c.Enabled() {
		return 0
	}
	return c.cache.Len()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.cache.Close()
}
