package token

import (
	"crypto/sha256"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length in bytes of the derived HMAC key.
const KeySize = 32

const keyInfo = "chat-portal session signing key"

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey returns the key used to verify a parsed token
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// HMACSigner implements Signer using symmetric HMAC-SHA256 over a key
// derived from the configured secret.
type HMACSigner struct {
	key []byte
}

// NewHMACSigner derives a signing key from secret with HKDF-SHA256.
func NewHMACSigner(secret string) (*HMACSigner, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &HMACSigner{key: key}, nil
}

// DeriveKey expands secret into a KeySize byte key. The same secret always
// yields the same key, so every instance sharing the secret accepts the same
// sessions.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("empty session secret")
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, errors.Wrap(err, "failed to derive session key")
	}
	return key, nil
}

func (h *HMACSigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.key)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.key, nil
}

func (h *HMACSigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}
