package backend

import (
	"fmt"

	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
)

// ErrorKind classifies why a credential exchange failed.
type ErrorKind int

const (
	// InvalidCredentials means the backend answered but rejected the login.
	InvalidCredentials ErrorKind = iota + 1
	// BackendUnavailable means the request never got an answer.
	BackendUnavailable
	// MalformedResponse means the answer could not be decoded or lacked
	// required fields.
	MalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid_credentials"
	case BackendUnavailable:
		return "backend_unavailable"
	case MalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case InvalidCredentials:
		return apperrors.ErrInvalidCredentials
	case BackendUnavailable:
		return apperrors.ErrBackendUnavailable
	case MalformedResponse:
		return apperrors.ErrMalformedResponse
	default:
		return apperrors.ErrInternal
	}
}

// ExchangeError is returned by Client.Login for every failed exchange.
type ExchangeError struct {
	Kind   ErrorKind
	Status int // upstream HTTP status, 0 when there was none
	Err    error
}

func newExchangeError(kind ErrorKind, status int, err error) *ExchangeError {
	return &ExchangeError{Kind: kind, Status: status, Err: err}
}

func (e *ExchangeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("login exchange failed: %s", e.Kind)
	}
	return fmt.Sprintf("login exchange failed: %s: %v", e.Kind, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the kind, so callers can use errors.Is
// with internal/errors values.
func (e *ExchangeError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the kind of an exchange error anywhere in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var xe *ExchangeError
	if apperrors.As(err, &xe) {
		return xe.Kind
	}
	return 0
}
