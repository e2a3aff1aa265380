// Package backendfake runs an in-memory stand-in for the external account
// backend on an httptest server.
package backendfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-chat-portal/backend"
	"github.com/jrsteele09/go-chat-portal/users"
)

// DefaultOTP is the code the fake issues for every reset request.
const DefaultOTP = "123456"

// Account is a registered backend user.
type Account struct {
	ID       string
	Username string
	Email    string
	Password string
	Profile  users.Profile
}

type scripted struct {
	status int
	body   string
}

// Backend is a fake account backend.
type Backend struct {
	server          *httptest.Server
	lock            sync.RWMutex
	accounts        map[string]*Account // username -> account
	accessTokens    map[string]string   // token -> username
	refreshTokens   map[string]string   // token -> username
	otps            map[string]string   // email -> otp
	verified        map[string]bool     // email -> otp verified
	calls           map[string]int      // path -> count
	lastAuth        map[string]string   // path -> Authorization header
	overrides       map[string]scripted // path -> canned reply
	apiKeyAIService string
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		accounts:      make(map[string]*Account),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		otps:          make(map[string]string),
		verified:      make(map[string]bool),
		calls:         make(map[string]int),
		lastAuth:      make(map[string]string),
		overrides:     make(map[string]scripted),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+backend.PathLogin, b.login)
	mux.HandleFunc("POST "+backend.PathSignUp, b.signUp)
	mux.HandleFunc("POST "+backend.PathLogout, b.logout)
	mux.HandleFunc("GET "+backend.PathRefreshToken, b.refreshToken)
	mux.HandleFunc("GET "+backend.PathAuthenticate, b.authenticate)
	mux.HandleFunc("POST "+backend.PathGetOTP, b.getOTP)
	mux.HandleFunc("POST "+backend.PathVerifyOTP, b.verifyOTP)
	mux.HandleFunc("POST "+backend.PathResetPassword, b.resetPassword)
	mux.HandleFunc("POST "+backend.PathGetInfo, b.getInfo)
	mux.HandleFunc("POST "+backend.PathUpdateInfo, b.updateInfo)
	mux.HandleFunc("POST "+backend.PathChangePassword, b.changePassword)

	b.server = httptest.NewServer(b.record(mux))
	t.Cleanup(b.server.Close)
	return b
}

// URL is the fake's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Client returns a backend.Client pointed at the fake.
func (b *Backend) Client(opts ...backend.ClientOption) *backend.Client {
	return backend.NewClient(b.server.URL, append([]backend.ClientOption{backend.WithHTTPClient(b.server.Client())}, opts...)...)
}

// Close stops the server early, making every later call a transport failure.
func (b *Backend) Close() {
	b.server.Close()
}

// SetAPIKeyAIService sets the key returned on every successful login.
func (b *Backend) SetAPIKeyAIService(key string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.apiKeyAIService = key
}

// AddAccount registers an account and returns it with its id filled in.
func (b *Backend) AddAccount(a Account) *Account {
	b.lock.Lock()
	defer b.lock.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Profile.Username = a.Username
	b.accounts[a.Username] = &a
	return &a
}

// Account returns a copy of the named account.
func (b *Backend) Account(username string) (Account, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	a, ok := b.accounts[username]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// IssueTokens returns a fresh token pair for an existing account.
func (b *Backend) IssueTokens(username string) users.TokenPair {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.issueTokensLocked(username)
}

// Script makes path answer with a fixed status and body until cleared with
// a zero status.
func (b *Backend) Script(path string, status int, body string) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if status == 0 {
		delete(b.overrides, path)
		return
	}
	b.overrides[path] = scripted{status: status, body: body}
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.calls[path]
}

// LastAuthorization returns the Authorization header of the latest request
// to path.
func (b *Backend) LastAuthorization(path string) string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.lastAuth[path]
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		b.calls[r.URL.Path]++
		b.lastAuth[r.URL.Path] = r.Header.Get("Authorization")
		override, ok := b.overrides[r.URL.Path]
		b.lock.Unlock()

		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(override.status)
			_, _ = w.Write([]byte(override.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) issueTokensLocked(username string) users.TokenPair {
	pair := users.TokenPair{
		AccessToken:  "access-" + uuid.New().String(),
		RefreshToken: "refresh-" + uuid.New().String(),
	}
	b.accessTokens[pair.AccessToken] = username
	b.refreshTokens[pair.RefreshToken] = username
	return pair
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func message(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "success": status < 300, "message": msg})
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds users.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		message(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	a, ok := b.accounts[creds.Username]
	if !ok || a.Password != creds.Password {
		message(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	pair := b.issueTokensLocked(a.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"code":            200,
		"message":         "Login successful",
		"account":         map[string]any{"id": a.ID, "username": a.Username, "email": a.Email},
		"tokens":          pair,
		"apiKeyAIService": b.apiKeyAIService,
	})
}

func (b *Backend) signUp(w http.ResponseWriter, r *http.Request) {
	var reg users.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.Username == "" || reg.Password == "" {
		message(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if _, exists := b.accounts[reg.Username]; exists {
		message(w, http.StatusConflict, "Username already exists")
		return
	}
	b.accounts[reg.Username] = &Account{
		ID:       uuid.New().String(),
		Username: reg.Username,
		Email:    reg.Email,
		Password: reg.Password,
		Profile:  users.Profile{Username: reg.Username},
	}
	message(w, http.StatusCreated, "Registered successfully")
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if tok := bearer(r); tok != "" {
		delete(b.accessTokens, tok)
	}
	message(w, http.StatusOK, "Logged out")
}

func (b *Backend) refreshToken(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	defer b.lock.Unlock()

	username, ok := b.refreshTokens[bearer(r)]
	if !ok {
		message(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	access := "access-" + uuid.New().String()
	b.accessTokens[access] = username
	writeJSON(w, http.StatusOK, map[string]any{"code": 200, "accessToken": access})
}

func (b *Backend) authenticate(w http.ResponseWriter, r *http.Request) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	username, ok := b.accessTokens[bearer(r)]
	if !ok {
		message(w, http.StatusUnauthorized, "Invalid access token")
		return
	}
	a := b.accounts[username]
	writeJSON(w, http.StatusOK, map[string]any{
		"code":    200,
		"account": map[string]any{"id": a.ID, "username": a.Username, "email": a.Email},
	})
}

func (b *Backend) getOTP(w http.ResponseWriter, r *http.Request) {
	var req users.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		message(w, http.StatusBadRequest, "Email is required")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if b.accountByEmailLocked(req.Email) == nil {
		message(w, http.StatusNotFound, "Email not found")
		return
	}
	b.otps[req.Email] = DefaultOTP
	b.verified[req.Email] = false
	message(w, http.StatusOK, "OTP sent")
}

func (b *Backend) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req users.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if otp, ok := b.otps[req.Email]; !ok || otp != req.OTP {
		message(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	b.verified[req.Email] = true
	message(w, http.StatusOK, "OTP verified")
}

func (b *Backend) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req users.PasswordReset
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	a := b.accountByEmailLocked(req.Email)
	if a == nil || !b.verified[req.Email] {
		message(w, http.StatusBadRequest, "OTP not verified")
		return
	}
	a.Password = req.Password
	delete(b.otps, req.Email)
	delete(b.verified, req.Email)
	message(w, http.StatusOK, "Password changed")
}

func (b *Backend) getInfo(w http.ResponseWriter, r *http.Request) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	username, ok := b.accessTokens[bearer(r)]
	if !ok {
		message(w, http.StatusUnauthorized, "Invalid access token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"code": 200, "data": b.accounts[username].Profile})
}

func (b *Backend) updateInfo(w http.ResponseWriter, r *http.Request) {
	var p users.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		message(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	username, ok := b.accessTokens[bearer(r)]
	if !ok {
		message(w, http.StatusUnauthorized, "Invalid access token")
		return
	}
	p.Username = username
	p.Age, p.BMI = nil, nil
	b.accounts[username].Profile = p
	writeJSON(w, http.StatusOK, map[string]any{"code": 200, "message": "Updated", "data": p})
}

func (b *Backend) changePassword(w http.ResponseWriter, r *http.Request) {
	var req users.PasswordChange
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	a := b.accountByEmailLocked(req.Email)
	if a == nil || a.Password != req.OldPassword {
		message(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	a.Password = req.NewPassword
	message(w, http.StatusOK, "Password changed")
}

func (b *Backend) accountByEmailLocked(email string) *Account {
	for _, a := range b.accounts {
		if a.Email == email {
			return a
		}
	}
	return nil
}
