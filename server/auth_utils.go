package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-chat-portal/sessions"
	"github.com/jrsteele09/go-chat-portal/users"
	"golang.org/x/oauth2"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes the {"success":false,...} envelope used by every
// auth API error.
func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	body := map[string]any{
		"success": false,
		"error":   errorCode,
	}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

// bearerFromHeader returns the token of an "Authorization: Bearer" header.
func bearerFromHeader(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// bearerKind selects which session token backs a request.
type bearerKind int

const (
	accessBearer bearerKind = iota
	refreshBearer
)

// resolveBearer prefers the caller's Authorization header and falls back to
// the matching token of the session cookie. It returns nil when neither
// carries a token.
func resolveBearer(r *http.Request, kind bearerKind) *oauth2.Token {
	if raw := bearerFromHeader(r); raw != "" {
		return users.BearerToken(raw)
	}
	session, ok := GetSession(r)
	if !ok {
		return nil
	}
	if kind == refreshBearer {
		return session.Tokens.RefreshOAuth2Token()
	}
	return session.Tokens.OAuth2Token()
}

// sessionAccessToken is the access token of the request's session, or "".
func sessionAccessToken(r *http.Request) string {
	session, ok := GetSession(r)
	if !ok {
		return ""
	}
	return session.Tokens.AccessToken
}

// clientIP is the remote address without its port. Forwarded headers are not
// trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) clearSession(w http.ResponseWriter) {
	sessions.ClearCookie(w, s.cookie)
}

// upstreamMessage pulls a human readable message out of a backend JSON body.
func upstreamMessage(body []byte, fallback string) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fallback
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return fallback
}
