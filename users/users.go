// Package users holds the account-side value types the portal exchanges with
// the external backend: credentials, the mirrored account identity, the
// bearer token pair and the editable profile.
package users

import (
	"math"
	"time"

	"golang.org/x/oauth2"
)

// Credentials are the username/password pair submitted on login. They live
// for a single exchange call and are never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountIdentity is the backend-owned identity mirrored into the session.
type AccountIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenPair holds the opaque bearer tokens issued by the backend. The portal
// never inspects their structure.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both tokens are present.
func (t TokenPair) Complete() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// OAuth2Token returns the access token as a bearer oauth2.Token, suitable for
// stamping outbound requests with SetAuthHeader.
func (t TokenPair) OAuth2Token() *oauth2.Token {
	return BearerToken(t.AccessToken)
}

// RefreshOAuth2Token returns the refresh token as a bearer oauth2.Token. The
// backend's refresh endpoint expects the refresh token in the Authorization
// header.
func (t TokenPair) RefreshOAuth2Token() *oauth2.Token {
	return BearerToken(t.RefreshToken)
}

// BearerToken wraps a raw token string as a bearer oauth2.Token.
func BearerToken(raw string) *oauth2.Token {
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
}

// Registration is the sign-up form forwarded to the backend.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordReset is the final step of the OTP reset flow.
type PasswordReset struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OTPRequest asks the backend to issue or verify a one-time passcode.
type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp,omitempty"`
}

// PasswordChange is submitted from the change-password page.
type PasswordChange struct {
	Email       string `json:"email"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Profile is the editable part of the account stored by the backend.
type Profile struct {
	Username    string   `json:"username"`
	Name        string   `json:"name,omitempty"`
	DateOfBirth string   `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	Height      float64  `json:"height,omitempty"`      // centimetres
	Weight      float64  `json:"weight,omitempty"`      // kilograms
	Age         *int     `json:"age,omitempty"`
	BMI         *float64 `json:"bmi,omitempty"`
}

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Derive fills Age and BMI from DateOfBirth, Height and Weight when the
// backend did not supply them.
func (p *Profile) Derive() {
	if p.Age == nil && p.DateOfBirth != "" {
		if dob, err := time.Parse(dateLayout, p.DateOfBirth); err == nil {
			age := yearsBetween(dob, NowTimeFunc())
			p.Age = &age
		}
	}
	if p.BMI == nil && p.Height > 0 && p.Weight > 0 {
		metres := p.Height / 100
		bmi := math.Round(p.Weight/(metres*metres)*10) / 10
		p.BMI = &bmi
	}
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
