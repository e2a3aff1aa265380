// Package auth turns a successful credential exchange into a signed session
// and reads sessions back out of their tokens.
package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-chat-portal/backend"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"github.com/jrsteele09/go-chat-portal/sessions"
	"github.com/jrsteele09/go-chat-portal/token"
	"github.com/jrsteele09/go-chat-portal/users"
)

// Exchanger performs the credential exchange against the backend.
type Exchanger interface {
	Login(ctx context.Context, creds users.Credentials) (*backend.LoginResult, error)
}

var _ Exchanger = (*backend.Client)(nil)

// Seed is the data a first issuance copies into the session token.
type Seed struct {
	Account         users.AccountIdentity
	Tokens          users.TokenPair
	APIKeyAIService string
}

// Service issues, reads and refreshes session tokens.
type Service struct {
	exchanger Exchanger
	codec     *token.Codec
	updateAge time.Duration
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithUpdateAge sets how old a token must be before Reissue re-signs it.
// Zero disables rolling re-issuance.
func WithUpdateAge(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.updateAge = d
	}
}

// NewService wires the exchange client and codec together.
func NewService(exchanger Exchanger, codec *token.Codec, options ...ServiceOption) *Service {
	s := &Service{
		exchanger: exchanger,
		codec:     codec,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Authorize validates creds and exchanges them with the backend. Empty
// fields fail with ErrMissingCredentials before any network call. A
// rejected or failed exchange returns the exchange error.
func (s *Service) Authorize(ctx context.Context, creds users.Credentials) (*Seed, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	res, err := s.exchanger.Login(ctx, creds)
	if err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Warn().Str("username", creds.Username).Stringer("kind", backend.KindOf(err)).Err(err).Msg("credential exchange failed")
		return nil, err
	}

	return &Seed{
		Account:         res.Account,
		Tokens:          res.Tokens,
		APIKeyAIService: res.APIKeyAIService,
	}, nil
}

// EnrichToken copies the seed into claims on first issuance. With a nil
// seed the claims pass through unchanged.
func EnrichToken(claims token.Claims, seed *Seed) token.Claims {
	if seed == nil {
		return claims
	}
	claims.AccountID = seed.Account.ID
	claims.Username = seed.Account.Username
	claims.Email = seed.Account.Email
	claims.AccessToken = seed.Tokens.AccessToken
	claims.RefreshToken = seed.Tokens.RefreshToken
	claims.APIKeyAIService = seed.APIKeyAIService
	return claims
}

// EnrichSession projects claims into the session view. Missing fields come
// out as empty strings; a nil claims value yields an empty session.
func EnrichSession(claims *token.Claims) sessions.Session {
	if claims == nil {
		return sessions.Session{}
	}
	return sessions.Session{
		User: sessions.User{
			ID:              claims.AccountID,
			Username:        claims.Username,
			Email:           claims.Email,
			APIKeyAIService: claims.APIKeyAIService,
		},
		Tokens: users.TokenPair{
			AccessToken:  claims.AccessToken,
			RefreshToken: claims.RefreshToken,
		},
	}
}

// Issue runs the whole sign-in: authorize, enrich the token, sign it.
func (s *Service) Issue(ctx context.Context, creds users.Credentials) (string, *sessions.Session, error) {
	seed, err := s.Authorize(ctx, creds)
	if err != nil {
		return "", nil, err
	}

	claims := EnrichToken(token.Claims{}, seed)
	signed, err := s.codec.Encode(claims)
	if err != nil {
		return "", nil, apperrors.Wrapf(err, "Service.Issue")
	}

	session := EnrichSession(&claims)
	return signed, &session, nil
}

// Session decodes a raw token into the session it carries.
func (s *Service) Session(raw string) (*sessions.Session, *token.Claims, error) {
	claims, err := s.codec.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	session := EnrichSession(claims)
	return &session, claims, nil
}

// Reissue re-signs claims with a fresh expiry once they are older than the
// update age. It reports false when no new token was needed.
func (s *Service) Reissue(claims *token.Claims) (string, bool, error) {
	if claims == nil || s.updateAge <= 0 || claims.Age(s.codec.Now()) < s.updateAge {
		return "", false, nil
	}

	signed, err := s.codec.Encode(EnrichToken(*claims, nil))
	if err != nil {
		return "", false, apperrors.Wrapf(err, "Service.Reissue")
	}
	return signed, true, nil
}

// MaxAge is the lifetime of issued session tokens.
func (s *Service) MaxAge() time.Duration {
	return s.codec.MaxAge()
}
