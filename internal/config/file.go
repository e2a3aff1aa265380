package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// fileSettings mirrors Settings for TOML decoding. Pointer fields let a file
// override only the keys it mentions.
type fileSettings struct {
	Port     *string `toml:"port"`
	AppName  *string `toml:"app_name"`
	Env      *string `toml:"env"`
	LogLevel *string `toml:"log_level"`

	Backend struct {
		URL             *string `toml:"url"`
		ExchangeTimeout *string `toml:"exchange_timeout"`
	} `toml:"backend"`

	Session struct {
		Secret     *string `toml:"secret"`
		CookieName *string `toml:"cookie_name"`
		MaxAge     *string `toml:"max_age"`
		UpdateAge  *string `toml:"update_age"`
	} `toml:"session"`

	Routes struct {
		SignInPage           *string  `toml:"sign_in_page"`
		ErrorPage            *string  `toml:"error_page"`
		DefaultLoginRedirect *string  `toml:"default_login_redirect"`
		APIAuthPrefix        *string  `toml:"api_auth_prefix"`
		Public               []string `toml:"public"`
		AuthOnly             []string `toml:"auth_only"`
		MatcherExclusions    []string `toml:"matcher_exclusions"`
	} `toml:"routes"`

	Security struct {
		AllowedOrigins  []string `toml:"allowed_origins"`
		LoginRateLimit  *int     `toml:"login_rate_limit"`
		ProfileCacheTTL *string  `toml:"profile_cache_ttl"`
	} `toml:"security"`
}

// LoadFile overlays the TOML file at path on top of base. An empty path
// returns base unchanged.
func LoadFile(path string, base Settings) (Settings, error) {
	if path == "" {
		return base, nil
	}
	var f fileSettings
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return base, fmt.Errorf("config.LoadFile %s: %w", path, err)
	}
	return f.apply(base)
}

// Decode overlays TOML text on top of base.
func Decode(data string, base Settings) (Settings, error) {
	var f fileSettings
	if _, err := toml.Decode(data, &f); err != nil {
		return base, fmt.Errorf("config.Decode: %w", err)
	}
	return f.apply(base)
}

func (f fileSettings) apply(s Settings) (Settings, error) {
	setString(&s.Port, f.Port)
	setString(&s.AppName, f.AppName)
	setString(&s.Env, f.Env)
	setString(&s.LogLevel, f.LogLevel)
	setString(&s.APIURL, f.Backend.URL)
	setString(&s.AuthSecret, f.Session.Secret)
	setString(&s.SessionCookieName, f.Session.CookieName)
	setString(&s.SignInPage, f.Routes.SignInPage)
	setString(&s.ErrorPage, f.Routes.ErrorPage)
	setString(&s.DefaultLoginRedirect, f.Routes.DefaultLoginRedirect)
	setString(&s.APIAuthPrefix, f.Routes.APIAuthPrefix)

	if f.Routes.Public != nil {
		s.PublicRoutes = f.Routes.Public
	}
	if f.Routes.AuthOnly != nil {
		s.AuthRoutes = f.Routes.AuthOnly
	}
	if f.Routes.MatcherExclusions != nil {
		s.MatcherExclusions = f.Routes.MatcherExclusions
	}
	if f.Security.AllowedOrigins != nil {
		s.AllowedOrigins = f.Security.AllowedOrigins
	}
	if f.Security.LoginRateLimit != nil {
		s.LoginRateLimit = *f.Security.LoginRateLimit
	}

	durations := []struct {
		name string
		raw  *string
		dst  *time.Duration
	}{
		{"backend.exchange_timeout", f.Backend.ExchangeTimeout, &s.ExchangeTimeout},
		{"session.max_age", f.Session.MaxAge, &s.SessionMaxAge},
		{"session.update_age", f.Session.UpdateAge, &s.SessionUpdateAge},
		{"security.profile_cache_ttl", f.Security.ProfileCacheTTL, &s.ProfileCacheTTL},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		v, err := time.ParseDuration(*d.raw)
		if err != nil {
			return s, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return s, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
