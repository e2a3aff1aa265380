package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-chat-portal/backend"
	"github.com/jrsteele09/go-chat-portal/backend/backendfake"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/users"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "alice"
	testEmail    = "alice@example.com"
	testPassword = "password123"
)

func newFake(t *testing.T) *backendfake.Backend {
	t.Helper()
	fake := backendfake.New(t)
	fake.AddAccount(backendfake.Account{ID: "42", Username: testUsername, Email: testEmail, Password: testPassword})
	return fake
}

func TestLogin(t *testing.T) {
	t.Run("success copies account and tokens", func(t *testing.T) {
		fake := newFake(t)
		fake.SetAPIKeyAIService("ai-key")

		res, err := fake.Client().Login(context.Background(), users.Credentials{Username: testUsername, Password: testPassword})
		require.NoError(t, err)
		require.Equal(t, users.AccountIdentity{ID: "42", Username: testUsername, Email: testEmail}, res.Account)
		require.True(t, res.Tokens.Complete())
		require.Equal(t, "ai-key", res.APIKeyAIService)
	})

	t.Run("numeric account id", func(t *testing.T) {
		fake := newFake(t)
		fake.Script(backend.PathLogin, http.StatusOK, `{"code":200,"account":{"id":7,"username":"bob","email":"b@example.com"},"tokens":{"accessToken":"a","refreshToken":"r"}}`)

		res, err := fake.Client().Login(context.Background(), users.Credentials{Username: "bob", Password: "x"})
		require.NoError(t, err)
		require.Equal(t, "7", res.Account.ID)
		require.Equal(t, "", res.APIKeyAIService)
	})

	t.Run("wrong password", func(t *testing.T) {
		fake := newFake(t)

		res, err := fake.Client().Login(context.Background(), users.Credentials{Username: testUsername, Password: "nope"})
		require.Nil(t, res)
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		require.Equal(t, backend.InvalidCredentials, backend.KindOf(err))
	})

	t.Run("code other than 200 in a 2xx reply", func(t *testing.T) {
		fake := newFake(t)
		fake.Script(backend.PathLogin, http.StatusOK, `{"code":401,"message":"bad"}`)

		res, err := fake.Client().Login(context.Background(), users.Credentials{Username: testUsername, Password: testPassword})
		require.Nil(t, res)
		require.Equal(t, backend.InvalidCredentials, backend.KindOf(err))
	})

	t.Run("undecodable body", func(t *testing.T) {
		fake := newFake(t)
		fake.Script(backend.PathLogin, http.StatusOK, `<html>oops</html>`)

		res, err := fake.Client().Login(context.Background(), users.Credentials{Username: testUsername, Password: testPassword})
		require.Nil(t, res)
		require.ErrorIs(t, err, apperrors.ErrMalformedResponse)
	})

	t.Run("missing tokens", func(t *testing.T) {
		fake := newFake(t)
		fake.Script(backend.PathLogin, http.StatusOK, `{"code":200,"account":{"id":"1"},"tokens":{"accessToken":"a"}}`)

		res, err := fake.Client().Login(context.Background(), users.Credentials{Username: testUsername, Password: testPassword})
		require.Nil(t, res)
		require.Equal(t, backend.MalformedResponse, backend.KindOf(err))
	})

	t.Run("backend down", func(t *testing.T) {
		fake := newFake(t)
		client := fake.Client()
		fake.Close()

		res, err := client.Login(context.Background(), users.Credentials{Username: testUsername, Password: testPassword})
		require.Nil(t, res)
		require.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer slow.Close()

		client := backend.NewClient(slow.URL+"/", backend.WithHTTPClient(slow.Client()), backend.WithTimeout(50*time.Millisecond))
		res, err := client.Login(context.Background(), users.Credentials{Username: testUsername, Password: testPassword})
		require.Nil(t, res)
		require.Equal(t, backend.BackendUnavailable, backend.KindOf(err))
	})
}

func TestForward(t *testing.T) {
	t.Run("stamps bearer and passes reply through", func(t *testing.T) {
		fake := newFake(t)
		pair := fake.IssueTokens(testUsername)

		reply, err := fake.Client().Forward(context.Background(), backend.Call{
			Method: http.MethodPost,
			Path:   backend.PathGetInfo,
			Body:   []byte(`{"username":"alice"}`),
			Bearer: pair.OAuth2Token(),
		})
		require.NoError(t, err)
		require.True(t, reply.OK())
		require.Equal(t, "application/json", reply.ContentType)
		require.Contains(t, string(reply.Body), `"username":"alice"`)
		require.Equal(t, "Bearer "+pair.AccessToken, fake.LastAuthorization(backend.PathGetInfo))
	})

	t.Run("upstream errors are not transport errors", func(t *testing.T) {
		fake := newFake(t)

		reply, err := fake.Client().Forward(context.Background(), backend.Call{
			Method: http.MethodGet,
			Path:   backend.PathAuthenticate,
			Bearer: users.BearerToken("unknown"),
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, reply.Status)
		require.False(t, reply.OK())
	})

	t.Run("no bearer leaves header empty", func(t *testing.T) {
		fake := newFake(t)

		_, err := fake.Client().Forward(context.Background(), backend.Call{
			Method: http.MethodPost,
			Path:   backend.PathGetOTP,
			Body:   []byte(`{"email":"alice@example.com"}`),
		})
		require.NoError(t, err)
		require.Equal(t, "", fake.LastAuthorization(backend.PathGetOTP))
	})

	t.Run("backend down", func(t *testing.T) {
		fake := newFake(t)
		client := fake.Client()
		fake.Close()

		_, err := client.Forward(context.Background(), backend.Call{Method: http.MethodPost, Path: backend.PathLogout})
		require.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
	})
}

func TestExchangeErrorKindString(t *testing.T) {
	require.Equal(t, "invalid_credentials", backend.InvalidCredentials.String())
	require.Equal(t, "backend_unavailable", backend.BackendUnavailable.String())
	require.Equal(t, "malformed_response", backend.MalformedResponse.String())
	require.Equal(t, backend.ErrorKind(0), backend.KindOf(apperrors.ErrInternal))
}
