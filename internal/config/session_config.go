package config

import "time"

type SessionConfig interface {
	GetAuthSecret() string
	GetSessionCookieName() string
	GetSessionMaxAge() time.Duration
	GetSessionUpdateAge() time.Duration
}

type SecurityConfig interface {
	GetLoginRateLimit() int
	GetProfileCacheTTL() time.Duration
}

func (s Settings) GetAuthSecret() string {
	return s.AuthSecret
}

func (s Settings) GetSessionCookieName() string {
	return s.SessionCookieName
}

// GetSessionMaxAge is the lifetime of an issued session token.
func (s Settings) GetSessionMaxAge() time.Duration {
	return s.SessionMaxAge
}

// GetSessionUpdateAge is how old a session token may get before a request
// re-issues it with a fresh expiry. Zero disables re-issuing.
func (s Settings) GetSessionUpdateAge() time.Duration {
	return s.SessionUpdateAge
}

// GetLoginRateLimit is the number of login attempts allowed per client IP per
// minute. Zero disables the limiter.
func (s Settings) GetLoginRateLimit() int {
	return s.LoginRateLimit
}

// GetProfileCacheTTL is how long account info reads are cached. Zero
// disables the cache.
func (s Settings) GetProfileCacheTTL() time.Duration {
	return s.ProfileCacheTTL
}
