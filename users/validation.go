package users

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/mail"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8
	maxPasswordLen = 32
	otpLen         = 6
	dateLayout     = "2006-01-02"
)

// FieldError is a single failed rule on a named form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every failed rule of a form.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets callers match any validation failure with ErrInvalidRequest.
func (v ValidationErrors) Unwrap() error {
	return apperrors.ErrInvalidRequest
}

// First returns the first message, or "" when there are none.
func (v ValidationErrors) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Message
}

func (v *ValidationErrors) add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ParseCredentials decodes a JSON login body. A field of the wrong JSON type
// fails decoding, so a successful parse always yields two strings.
func ParseCredentials(r io.Reader) (Credentials, error) {
	var c Credentials
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Credentials{}, fmt.Errorf("decoding credentials: %w", apperrors.ErrInvalidRequest)
	}
	return c, nil
}

// Validate is the minimal guard applied before any exchange: both fields
// must be non-empty. Whitespace is left for the backend to judge.
func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return apperrors.ErrMissingCredentials
	}
	return nil
}

// ValidateForm applies the login form rules.
func (c Credentials) ValidateForm() error {
	var errs ValidationErrors
	if len(strings.TrimSpace(c.Username)) < minUsernameLen {
		errs.add("username", "Username must be at least %d characters", minUsernameLen)
	}
	if len(c.Password) < minPasswordLen {
		errs.add("password", "Password must be at least %d characters long", minPasswordLen)
	} else if len(c.Password) > maxPasswordLen {
		errs.add("password", "Password must be at most %d characters", maxPasswordLen)
	}
	return errs.orNil()
}

// Validate applies the registration form rules.
func (r Registration) Validate() error {
	var errs ValidationErrors
	if len(strings.TrimSpace(r.Username)) < minUsernameLen {
		errs.add("username", "Username must be at least %d characters", minUsernameLen)
	}
	if !validEmail(r.Email) {
		errs.add("email", "Email is required!")
	}
	if err := ValidatePasswordStrength(r.Password); err != nil {
		errs.add("password", "%s", err.Error())
	}
	return errs.orNil()
}

// Validate checks the email step of the reset flow, and the code when one is
// present.
func (o OTPRequest) Validate() error {
	var errs ValidationErrors
	if !validEmail(o.Email) {
		errs.add("email", "A valid email is required")
	}
	if o.OTP != "" && !isDigits(o.OTP, otpLen) {
		errs.add("otp", "OTP must be %d digits", otpLen)
	}
	return errs.orNil()
}

func (p PasswordReset) Validate() error {
	var errs ValidationErrors
	if !validEmail(p.Email) {
		errs.add("email", "A valid email is required")
	}
	if err := ValidatePasswordStrength(p.Password); err != nil {
		errs.add("password", "%s", err.Error())
	}
	return errs.orNil()
}

func (p PasswordChange) Validate() error {
	var errs ValidationErrors
	if !validEmail(p.Email) {
		errs.add("email", "A valid email is required")
	}
	if p.OldPassword == "" {
		errs.add("oldPassword", "Current password is required")
	}
	if err := ValidatePasswordStrength(p.NewPassword); err != nil {
		errs.add("newPassword", "%s", err.Error())
	} else if p.NewPassword == p.OldPassword {
		errs.add("newPassword", "New password must differ from the current one")
	}
	return errs.orNil()
}

// Validate applies the profile form rules.
func (p Profile) Validate() error {
	var errs ValidationErrors
	if len(strings.TrimSpace(p.Username)) < minUsernameLen {
		errs.add("username", "Username must be at least %d characters", minUsernameLen)
	}
	if p.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, p.DateOfBirth)
		if err != nil {
			errs.add("dateOfBirth", "Date of birth must be YYYY-MM-DD")
		} else if dob.After(NowTimeFunc()) {
			errs.add("dateOfBirth", "Date of birth cannot be in the future")
		}
	}
	switch {
	case !finite(p.Height):
		errs.add("height", "Height must be a number")
	case p.Height < 0 || p.Height > 300:
		errs.add("height", "Height must be between 0 and 300 cm")
	}
	switch {
	case !finite(p.Weight):
		errs.add("weight", "Weight must be a number")
	case p.Weight < 0 || p.Weight > 500:
		errs.add("weight", "Weight must be between 0 and 500 kg")
	}
	return errs.orNil()
}

// ValidatePasswordStrength checks if password meets the sign-up rules:
// - Between 8 and 32 characters long
// - Contains at least one letter
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLen)
	}

	var (
		hasLetter bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasLetter || !hasNumber {
		return fmt.Errorf("password must include letters and numbers")
	}

	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
