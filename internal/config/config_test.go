package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-chat-portal/internal/config"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := config.New(config.Defaults())
	require.NoError(t, err)

	require.Equal(t, ":3000", c.GetAddr())
	require.Equal(t, "http://localhost:8080", c.GetAPIURL())
	require.Equal(t, "/auth/login", c.GetSignInPage())
	require.Equal(t, "/auth/error", c.GetErrorPage())
	require.Equal(t, "/private/profile", c.GetDefaultLoginRedirect())
	require.Equal(t, "/api/auth", c.GetAPIAuthPrefix())
	require.Equal(t, []string{"/", "/auth/error"}, c.GetPublicRoutes())
	require.Equal(t, []string{"/auth/login", "/auth/register", "/auth/forgot-password"}, c.GetAuthRoutes())
	require.NotEmpty(t, c.GetAuthSecret(), "development gets a default secret")
	require.False(t, c.IsProduction())
}

func TestNew_Validation(t *testing.T) {
	t.Run("relative api url", func(t *testing.T) {
		s := config.Defaults()
		s.APIURL = "localhost:8080"
		_, err := config.New(s)
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		s := config.Defaults()
		s.APIURL = "https://api.example.com/"
		c, err := config.New(s)
		require.NoError(t, err)
		require.Equal(t, "https://api.example.com", c.GetAPIURL())
	})

	t.Run("production requires long secret", func(t *testing.T) {
		s := config.Defaults()
		s.Env = "production"
		s.AuthSecret = "short"
		_, err := config.New(s)
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)

		s.AuthSecret = "0123456789abcdef0123456789abcdef"
		c, err := config.New(s)
		require.NoError(t, err)
		require.True(t, c.IsProduction())
	})

	t.Run("relative page path", func(t *testing.T) {
		s := config.Defaults()
		s.SignInPage = "auth/login"
		_, err := config.New(s)
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})

	t.Run("non positive max age", func(t *testing.T) {
		s := config.Defaults()
		s.SessionMaxAge = 0
		_, err := config.New(s)
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("NEXT_PUBLIC_API_URL", "http://public.example.com")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_MAX_AGE", "2h")
	t.Setenv("LOGIN_RATE_LIMIT", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	s := config.FromEnv(config.Defaults())
	require.Equal(t, "http://public.example.com", s.APIURL)
	require.Equal(t, "9090", s.Port)
	require.Equal(t, 2*time.Hour, s.SessionMaxAge)
	require.Equal(t, 3, s.LoginRateLimit)

	t.Setenv("API_URL", "http://private.example.com")
	s = config.FromEnv(config.Defaults())
	require.Equal(t, "http://private.example.com", s.APIURL, "API_URL wins over NEXT_PUBLIC_API_URL")

	c, err := config.New(s)
	require.NoError(t, err)
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.Equal(t, "https://a.example.com, https://b.example.com", c.GetAllowedOrigins().String())
}

func TestDecode(t *testing.T) {
	s, err := config.Decode(`
port = "4000"

[backend]
url = "https://backend.example.com"
exchange_timeout = "15s"

[session]
max_age = "12h"

[routes]
public = ["/", "/about"]
`, config.Defaults())
	require.NoError(t, err)
	require.Equal(t, "4000", s.Port)
	require.Equal(t, "https://backend.example.com", s.APIURL)
	require.Equal(t, 15*time.Second, s.ExchangeTimeout)
	require.Equal(t, 12*time.Hour, s.SessionMaxAge)
	require.Equal(t, []string{"/", "/about"}, s.PublicRoutes)
	require.Equal(t, "/auth/login", s.SignInPage, "untouched keys keep their base value")

	_, err = config.Decode(`[session]
max_age = "forever"`, config.Defaults())
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	s, err := config.LoadFile("", config.Defaults())
	require.NoError(t, err)
	require.Equal(t, config.Defaults().Port, s.Port)

	path := filepath.Join(t.TempDir(), "portal.toml")
	require.NoError(t, os.WriteFile(path, []byte("app_name = \"Test Portal\"\n"), 0o600))
	s, err = config.LoadFile(path, config.Defaults())
	require.NoError(t, err)
	require.Equal(t, "Test Portal", s.AppName)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"), config.Defaults())
	require.Error(t, err)
}
