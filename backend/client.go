// Package backend talks to the external account backend: the credential
// exchange used at login and the pass-through calls behind the proxy routes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-chat-portal/users"
)

// Backend paths.
const (
	PathLogin          = "/v1/api/login"
	PathSignUp         = "/v1/api/sign-up"
	PathLogout         = "/v1/api/logout"
	PathRefreshToken   = "/v1/api/refreshToken"
	PathAuthenticate   = "/v1/api/authenticate"
	PathGetOTP         = "/v1/api/reset/getOTP"
	PathVerifyOTP      = "/v1/api/reset/verifyOTP"
	PathResetPassword  = "/v1/api/reset/password"
	PathGetInfo        = "/v1/api/account/getInfo"
	PathUpdateInfo     = "/v1/api/account/updateInfo"
	PathChangePassword = "/v1/api/account/changePassword"
)

// successCode is the application-level code the backend puts in a
// successful login body.
const successCode = 200

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 1 << 20

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient configures the Client to use a custom http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every call with a per-request deadline. Zero leaves
// calls bounded only by the caller's context.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client calls the external backend. It never retries and never refreshes
// tokens on its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client for the backend at baseURL. A trailing slash is
// trimmed.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoginResult is a successful credential exchange.
type LoginResult struct {
	Account         users.AccountIdentity
	Tokens          users.TokenPair
	APIKeyAIService string
}

type loginResponse struct {
	Code    int `json:"code"`
	Account *struct {
		ID       flexString `json:"id"`
		Username string     `json:"username"`
		Email    string     `json:"email"`
	} `json:"account"`
	Tokens *struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
	APIKeyAIService string `json:"apiKeyAIService"`
}

// flexString accepts a JSON string or number. Account ids arrive as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Login exchanges credentials for an identity and token pair. It succeeds
// only when the backend answers 2xx with code 200, an account id and both
// tokens. Every failure is an *ExchangeError.
func (c *Client) Login(ctx context.Context, creds users.Credentials) (*LoginResult, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, newExchangeError(MalformedResponse, 0, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathLogin, bytes.NewReader(body))
	if err != nil {
		return nil, newExchangeError(BackendUnavailable, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newExchangeError(BackendUnavailable, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newExchangeError(InvalidCredentials, resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode))
	}

	var lr loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&lr); err != nil {
		return nil, newExchangeError(MalformedResponse, resp.StatusCode, err)
	}
	if lr.Code != successCode {
		return nil, newExchangeError(InvalidCredentials, resp.StatusCode, fmt.Errorf("code %d", lr.Code))
	}
	if lr.Account == nil || lr.Account.ID == "" || lr.Tokens == nil ||
		lr.Tokens.AccessToken == "" || lr.Tokens.RefreshToken == "" {
		return nil, newExchangeError(MalformedResponse, resp.StatusCode, fmt.Errorf("missing account or tokens"))
	}

	return &LoginResult{
		Account: users.AccountIdentity{
			ID:       string(lr.Account.ID),
			Username: lr.Account.Username,
			Email:    lr.Account.Email,
		},
		Tokens: users.TokenPair{
			AccessToken:  lr.Tokens.AccessToken,
			RefreshToken: lr.Tokens.RefreshToken,
		},
		APIKeyAIService: lr.APIKeyAIService,
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// statusText is used in log lines for upstream failures.
func statusText(code int) string {
	return strconv.Itoa(code) + " " + http.StatusText(code)
}
