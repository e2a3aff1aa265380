// Package config holds the process-wide settings of the portal. Settings are
// resolved once at startup (defaults, optional TOML file, environment, CLI
// flags) and handed to the rest of the program through the Config getters;
// no other package reads the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
)

type Config interface {
	EnvConfig
	BackendConfig
	SessionConfig
	RoutesConfig
	CorsConfig
	SecurityConfig
}

type EnvConfig interface {
	GetAddr() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	IsProduction() bool
}

type BackendConfig interface {
	GetAPIURL() string
	GetExchangeTimeout() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// devSecret lets a local checkout run without any configuration.
const devSecret = "dev-secret-key-do-not-use-in-production!!"

// minProductionSecretLen is the shortest AUTH_SECRET accepted in production.
const minProductionSecretLen = 32

// Settings is the flat, immutable set of values every getter reads from.
type Settings struct {
	Port     string
	AppName  string
	Env      string
	LogLevel string

	APIURL          string
	ExchangeTimeout time.Duration

	AuthSecret        string
	SessionCookieName string
	SessionMaxAge     time.Duration
	SessionUpdateAge  time.Duration

	SignInPage           string
	ErrorPage            string
	DefaultLoginRedirect string
	APIAuthPrefix        string
	PublicRoutes         []string
	AuthRoutes           []string
	MatcherExclusions    []string

	AllowedOrigins  []string
	LoginRateLimit  int
	ProfileCacheTTL time.Duration
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		Port:     "3000",
		AppName:  "Chat Portal",
		Env:      "DEV",
		LogLevel: "info",

		APIURL: "http://localhost:8080",

		SessionCookieName: "chat_session",
		SessionMaxAge:     30 * 24 * time.Hour,
		SessionUpdateAge:  24 * time.Hour,

		SignInPage:           "/auth/login",
		ErrorPage:            "/auth/error",
		DefaultLoginRedirect: "/private/profile",
		APIAuthPrefix:        "/api/auth",
		PublicRoutes:         []string{"/", "/auth/error"},
		AuthRoutes:           []string{"/auth/login", "/auth/register", "/auth/forgot-password"},
		MatcherExclusions:    []string{"api", "static", "images", "favicon.ico"},

		LoginRateLimit:  10,
		ProfileCacheTTL: 5 * time.Minute,
	}
}

type mainConfig struct {
	Settings
	origins AllowedOrigins
}

// New validates s and returns it as a Config.
func New(s Settings) (Config, error) {
	if err := s.normalise(); err != nil {
		return nil, err
	}
	return mainConfig{Settings: s, origins: newAllowedOrigins(s.AllowedOrigins)}, nil
}

func (s *Settings) normalise() error {
	s.APIURL = strings.TrimRight(strings.TrimSpace(s.APIURL), "/")
	u, err := url.Parse(s.APIURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api url %q must be an absolute http(s) URL: %w", s.APIURL, apperrors.ErrInvalidConfig)
	}

	if s.IsProduction() {
		if len(s.AuthSecret) < minProductionSecretLen {
			return fmt.Errorf("AUTH_SECRET must be at least %d characters in production: %w", minProductionSecretLen, apperrors.ErrInvalidConfig)
		}
	} else if s.AuthSecret == "" {
		s.AuthSecret = devSecret
	}

	if s.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be positive: %w", apperrors.ErrInvalidConfig)
	}
	if s.SessionCookieName == "" {
		return fmt.Errorf("session cookie name is required: %w", apperrors.ErrInvalidConfig)
	}

	for name, p := range map[string]string{
		"sign-in page":           s.SignInPage,
		"error page":             s.ErrorPage,
		"default login redirect": s.DefaultLoginRedirect,
		"api auth prefix":        s.APIAuthPrefix,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s %q must be an absolute path: %w", name, p, apperrors.ErrInvalidConfig)
		}
	}
	return nil
}

func (s Settings) IsProduction() bool {
	env := strings.ToLower(s.Env)
	return env == "production" || env == "prod"
}
