// Package token signs and verifies the client-held session token.
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
)

// Claims is the payload of a session token.
type Claims struct {
	AccountID       string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
	APIKeyAIService string `json:"apiKeyAIService"`
	jwt.RegisteredClaims
}

// HasTokens reports whether both bearer tokens are present.
func (c *Claims) HasTokens() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// Age returns how long ago the token was issued. A token without an iat is
// treated as brand new.
func (c *Claims) Age(now time.Time) time.Duration {
	if c.IssuedAt == nil {
		return 0
	}
	return now.Sub(c.IssuedAt.Time)
}

// Codec turns Claims into signed strings and back.
type Codec struct {
	signer  Signer
	maxAge  time.Duration
	issuer  string
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithIssuer sets the iss claim written and required by the codec.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec returns a codec whose tokens expire maxAge after issuance.
func NewCodec(signer Signer, maxAge time.Duration, options ...CodecOption) *Codec {
	c := &Codec{
		signer:  signer,
		maxAge:  maxAge,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// MaxAge is the lifetime given to every encoded token.
func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

// Now returns the codec's clock reading.
func (c *Codec) Now() time.Time {
	return c.nowFunc()
}

// Encode stamps fresh iat, exp and jti values onto claims and signs them.
// The caller's value is not modified.
func (c *Codec) Encode(claims Claims) (string, error) {
	now := c.nowFunc()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.maxAge))
	claims.ID = uuid.NewString()
	if c.issuer != "" {
		claims.Issuer = c.issuer
	}

	signed, err := c.signer.Sign(&claims)
	if err != nil {
		return "", apperrors.Wrapf(err, "Codec.Encode")
	}
	return signed, nil
}

// Decode verifies raw and returns its claims. Expired tokens return
// ErrSessionExpired; anything else that fails verification, including a
// token missing either bearer token, returns ErrInvalidSession.
func (c *Codec) Decode(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.ErrInvalidSession
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, c.signer.GetVerificationKey, opts...)
	if err != nil {
		if apperrors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSession, "%s", err.Error())
	}
	if !parsed.Valid || !claims.HasTokens() {
		return nil, apperrors.ErrInvalidSession
	}
	return claims, nil
}
