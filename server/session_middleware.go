package server

import (
	"context"
	"net/http"

	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"github.com/jrsteele09/go-chat-portal/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the decoded *sessions.Session
	ContextKeySession ContextKey = "session"
)

// SessionMiddleware decodes the session cookie once per request and stores
// the session in the request context. A cookie that fails to decode is
// treated as no session. Sessions older than the update age get a freshly
// signed cookie.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := sessions.ReadCookie(r, s.cookie.Name)
		if raw == "" {
			next(w, r)
			return
		}

		logger := logutil.GetOrDefault(r.Context())
		session, claims, err := s.auth.Session(raw)
		if err != nil {
			logger.Debug().Err(err).Msg("ignoring session cookie")
			if apperrors.Is(err, apperrors.ErrSessionExpired) || apperrors.Is(err, apperrors.ErrInvalidSession) {
				sessions.ClearCookie(w, s.cookie)
			}
			next(w, r)
			return
		}

		fresh, renewed, err := s.auth.Reissue(claims)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to re-issue session")
		} else if renewed {
			sessions.SetCookie(w, s.cookie, fresh)
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, session)))
	}
}

// GetSession returns the session attached to r by SessionMiddleware. The
// fields match those served by the session endpoint.
func GetSession(r *http.Request) (*sessions.Session, bool) {
	session, ok := r.Context().Value(ContextKeySession).(*sessions.Session)
	if !ok || !session.Valid() {
		return nil, false
	}
	return session, true
}

func (s *Server) hasSession(r *http.Request) bool {
	_, ok := GetSession(r)
	return ok
}
