package errors

import (
	"errors"
	"fmt"
)

// Common error types for the chat portal
var (
	// Credential exchange errors
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrMalformedResponse  = errors.New("malformed backend response")

	// Session errors
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")

	// Request validation errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingBearer  = errors.New("missing bearer token")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text
func New(text string) error {
	return errors.New(text)
}
