package token_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/token"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-test-secret-that-is-long-enough-to-use"

func newCodec(t *testing.T, now func() time.Time) *token.Codec {
	t.Helper()
	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)
	return token.NewCodec(signer, time.Hour, token.WithIssuer("chat-portal"), token.WithNowFunc(now))
}

func sampleClaims() token.Claims {
	return token.Claims{
		AccountID:       "42",
		Username:        "alice",
		Email:           "alice@example.com",
		AccessToken:     "access-1",
		RefreshToken:    "refresh-1",
		APIKeyAIService: "ai-key",
	}
}

func TestCodecRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newCodec(t, func() time.Time { return now })

	raw, err := codec.Encode(sampleClaims())
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(raw, "."))

	claims, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "42", claims.AccountID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "access-1", claims.AccessToken)
	require.Equal(t, "refresh-1", claims.RefreshToken)
	require.Equal(t, "ai-key", claims.APIKeyAIService)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	require.Equal(t, time.Duration(0), claims.Age(now))
}

func TestCodecEncodeStampsUniqueIDs(t *testing.T) {
	codec := newCodec(t, time.Now)

	first, err := codec.Encode(sampleClaims())
	require.NoError(t, err)
	second, err := codec.Encode(sampleClaims())
	require.NoError(t, err)

	a, err := codec.Decode(first)
	require.NoError(t, err)
	b, err := codec.Decode(second)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestCodecDecodeFailures(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newCodec(t, func() time.Time { return now })

	valid, err := codec.Encode(sampleClaims())
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := codec.Decode("")
		require.ErrorIs(t, err, apperrors.ErrInvalidSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Decode("not-a-token")
		require.ErrorIs(t, err, apperrors.ErrInvalidSession)
	})

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(valid, ".")
		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)
		forged := strings.Replace(string(payload), `"alice"`, `"mallory"`, 1)
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))
		_, err = codec.Decode(strings.Join(parts, "."))
		require.ErrorIs(t, err, apperrors.ErrInvalidSession)
	})

	t.Run("different secret", func(t *testing.T) {
		signer, err := token.NewHMACSigner("another-secret-that-is-also-long-enough")
		require.NoError(t, err)
		other := token.NewCodec(signer, time.Hour, token.WithIssuer("chat-portal"), token.WithNowFunc(func() time.Time { return now }))
		_, err = other.Decode(valid)
		require.ErrorIs(t, err, apperrors.ErrInvalidSession)
	})

	t.Run("expired", func(t *testing.T) {
		later := newCodec(t, func() time.Time { return now.Add(2 * time.Hour) })
		_, err := later.Decode(valid)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("missing refresh token", func(t *testing.T) {
		claims := sampleClaims()
		claims.RefreshToken = ""
		raw, err := codec.Encode(claims)
		require.NoError(t, err)
		_, err = codec.Decode(raw)
		require.ErrorIs(t, err, apperrors.ErrInvalidSession)
	})

	t.Run("unsigned alg none", func(t *testing.T) {
		claims := sampleClaims()
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, &claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = codec.Decode(raw)
		require.ErrorIs(t, err, apperrors.ErrInvalidSession)
	})
}

func TestDeriveKey(t *testing.T) {
	a, err := token.DeriveKey(testSecret)
	require.NoError(t, err)
	b, err := token.DeriveKey(testSecret)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, token.KeySize)

	c, err := token.DeriveKey(testSecret + "x")
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	_, err = token.DeriveKey("")
	require.Error(t, err)
}
