package routeguard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-chat-portal/internal/config"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/routeguard"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) *routeguard.Guard {
	t.Helper()
	g, err := routeguard.New(config.Defaults())
	require.NoError(t, err)
	return g
}

func TestClassify(t *testing.T) {
	g := newGuard(t)

	for path, want := range map[string]routeguard.Classification{
		"/api/auth/login":       routeguard.APIAuthPrefix,
		"/api/auth/session":     routeguard.APIAuthPrefix,
		"/auth/login":           routeguard.AuthOnly,
		"/auth/register":        routeguard.AuthOnly,
		"/auth/forgot-password": routeguard.AuthOnly,
		"/":                     routeguard.Public,
		"/auth/error":           routeguard.Public,
		"/private/profile":      routeguard.Protected,
		"/auth/change-password": routeguard.Protected,
		"/auth/login/":          routeguard.Protected,
	} {
		require.Equal(t, want, g.Classify(path), path)
	}
}

func TestDecide(t *testing.T) {
	g := newGuard(t)

	cases := []struct {
		name       string
		path       string
		hasSession bool
		action     routeguard.Action
		location   string
	}{
		{name: "protected without session", path: "/private/profile", action: routeguard.Redirect, location: "/auth/login"},
		{name: "protected with session", path: "/private/profile", hasSession: true, action: routeguard.Allow},
		{name: "auth page with session", path: "/auth/login", hasSession: true, action: routeguard.Redirect, location: "/private/profile"},
		{name: "auth page without session", path: "/auth/login", action: routeguard.Allow},
		{name: "api auth without session", path: "/api/auth/login", action: routeguard.Allow},
		{name: "api auth with session", path: "/api/auth/login", hasSession: true, action: routeguard.Allow},
		{name: "home without session", path: "/", action: routeguard.Allow},
		{name: "home with session", path: "/", hasSession: true, action: routeguard.Allow},
		{name: "error page without session", path: "/auth/error", action: routeguard.Allow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Decide(tc.path, tc.hasSession)
			require.Equal(t, tc.action, d.Action)
			require.Equal(t, tc.location, d.Location)
		})
	}
}

func TestDecideIsIdempotent(t *testing.T) {
	g := newGuard(t)

	for _, path := range []string{"/", "/auth/login", "/private/profile", "/api/auth/session", "/unknown"} {
		for _, has := range []bool{true, false} {
			first := g.Decide(path, has)
			for i := 0; i < 3; i++ {
				require.Equal(t, first, g.Decide(path, has))
			}
		}
	}
}

func TestRedirectURL(t *testing.T) {
	g := newGuard(t)

	d := g.Decide("/private/profile", false)
	require.Equal(t, "/auth/login?callbackUrl=%2Fprivate%2Fprofile%3Ftab%3D1", d.RedirectURL("/private/profile?tab=1"))

	d = g.Decide("/auth/login", true)
	require.Equal(t, "/private/profile", d.RedirectURL("/auth/login"))
}

func TestMatches(t *testing.T) {
	g := newGuard(t)

	require.False(t, g.Matches("/api/auth/login"))
	require.False(t, g.Matches("/static/app.css"))
	require.False(t, g.Matches("/images/logo.png"))
	require.False(t, g.Matches("/favicon.ico"))
	require.True(t, g.Matches("/private/profile"))
	require.True(t, g.Matches("/"))
}

func TestNewRejectsLoopingConfig(t *testing.T) {
	t.Run("path in two classes", func(t *testing.T) {
		s := config.Defaults()
		s.PublicRoutes = append(s.PublicRoutes, "/auth/login")
		_, err := routeguard.New(s)
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})

	t.Run("post-login page is auth-only", func(t *testing.T) {
		s := config.Defaults()
		s.DefaultLoginRedirect = "/auth/register"
		_, err := routeguard.New(s)
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})

	t.Run("sign-in page is protected", func(t *testing.T) {
		s := config.Defaults()
		s.SignInPage = "/private/login"
		_, err := routeguard.New(s)
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})

	t.Run("defaults are accepted", func(t *testing.T) {
		g := newGuard(t)
		require.Len(t, g.Rules(), 4)
		require.Contains(t, g.Describe(), "auth-only")
	})
}

func TestMiddleware(t *testing.T) {
	g := newGuard(t)

	signedIn := func(r *http.Request) bool { return r.Header.Get("X-Test-Session") == "yes" }
	handler := g.Middleware(signedIn)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	serve := func(path string, session bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if session {
			req.Header.Set("X-Test-Session", "yes")
		}
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	rec := serve("/private/profile", false)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/auth/login?callbackUrl=%2Fprivate%2Fprofile", rec.Header().Get("Location"))

	rec = serve("/auth/login", true)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/private/profile", rec.Header().Get("Location"))

	require.Equal(t, http.StatusTeapot, serve("/private/profile", true).Code)
	require.Equal(t, http.StatusTeapot, serve("/", false).Code)
	require.Equal(t, http.StatusTeapot, serve("/static/app.css", false).Code)
	require.Equal(t, http.StatusTeapot, serve("/api/auth/session", false).Code)
}
