// Package sessions models the signed-in state carried by the session cookie.
// There is no server-side store: everything a session knows travels in the
// signed token.
package sessions

import (
	"github.com/jrsteele09/go-chat-portal/users"
)

// User is the identity part of a session: the backend account plus the
// optional AI service key handed out at login.
type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	APIKeyAIService string `json:"apiKeyAIService"`
}

// Session is the decoded view of a session token as handlers and pages see it.
type Session struct {
	User   User            `json:"user"`
	Tokens users.TokenPair `json:"tokens"`
}

// Valid reports whether the session carries both bearer tokens. A session
// missing either token is treated as signed out.
func (s *Session) Valid() bool {
	return s != nil && s.Tokens.Complete()
}

// Identity returns the account identity mirrored in the session.
func (s *Session) Identity() users.AccountIdentity {
	return users.AccountIdentity{
		ID:       s.User.ID,
		Username: s.User.Username,
		Email:    s.User.Email,
	}
}
