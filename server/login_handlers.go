package server

import (
	"net/http"

	"github.com/jrsteele09/go-chat-portal/auth"
	"github.com/jrsteele09/go-chat-portal/backend"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"github.com/jrsteele09/go-chat-portal/routeguard"
	"github.com/jrsteele09/go-chat-portal/sessions"
	"github.com/jrsteele09/go-chat-portal/users"
)

const (
	msgInvalidLogin       = "Invalid username or password"
	msgMissingCredentials = "Username and password are required"

	maxBodyBytes = 1 << 20
)

// LoginPageHandler displays the sign-in page (GET /auth/login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data := s.newPageData(r, "Sign in")
		data.CallbackURL = auth.SafeCallbackURL(q.Get(routeguard.CallbackParam), "")
		data.Error = q.Get("error")
		switch {
		case q.Get("registered") != "":
			data.Notice = "Account created, you can sign in now."
		case q.Get("reset") != "":
			data.Notice = "Password changed, sign in with your new password."
		}
		s.renderPage(w, r, http.StatusOK, pageLogin, data)
	}
}

// LoginSubmissionHandler processes the sign-in form. Every failed exchange
// shows the same message; the reason is only logged.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		creds := users.Credentials{
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		}
		callback := auth.SafeCallbackURL(r.FormValue(routeguard.CallbackParam), "")

		data := s.newPageData(r, "Sign in")
		data.CallbackURL = callback
		data.Form = map[string]string{"username": creds.Username}

		if err := creds.ValidateForm(); err != nil {
			data.FieldErrors = fieldErrors(err)
			s.renderPage(w, r, http.StatusBadRequest, pageLogin, data)
			return
		}

		signed, _, err := s.auth.Issue(r.Context(), creds)
		if err != nil {
			data.Error = msgInvalidLogin
			s.renderPage(w, r, http.StatusUnauthorized, pageLogin, data)
			return
		}

		sessions.SetCookie(w, s.cookie, signed)
		redirectSuccess(w, r, auth.SafeCallbackURL(callback, s.config.GetDefaultLoginRedirect()))
	}
}

// APILoginHandler is the JSON sign-in endpoint (POST /api/auth/login).
func (s *Server) APILoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := users.ParseCredentials(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", msgMissingCredentials)
			return
		}

		signed, session, err := s.auth.Issue(r.Context(), creds)
		switch {
		case apperrors.Is(err, apperrors.ErrMissingCredentials):
			writeJSONError(w, http.StatusBadRequest, "missing_credentials", msgMissingCredentials)
			return
		case err != nil:
			code := backend.KindOf(err).String()
			if code == "unknown" {
				code = "login_failed"
			}
			writeJSONError(w, http.StatusUnauthorized, code, msgInvalidLogin)
			return
		}

		sessions.SetCookie(w, s.cookie, signed)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    session.User,
			"tokens":  session.Tokens,
		})
	}
}

// SessionHandler returns the current session (GET /api/auth/session), or an
// empty object when signed out.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		session, ok := GetSession(r)
		if !ok {
			writeJSON(w, http.StatusOK, struct{}{})
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// LogoutHandler ends the session from a page (POST /auth/logout). The
// backend is told best-effort; the cookie is always cleared.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bearer := resolveBearer(r, accessBearer); bearer != nil {
			s.profiles.Invalidate(bearer.AccessToken)
			if _, err := s.backend.Forward(r.Context(), backend.Call{Method: http.MethodPost, Path: backend.PathLogout, Bearer: bearer}); err != nil {
				logger := logutil.GetOrDefault(r.Context())
				logger.Warn().Err(err).Msg("backend logout failed")
			}
		}
		s.clearSession(w)
		redirectSuccess(w, r, s.config.GetSignInPage())
	}
}
