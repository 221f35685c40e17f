package perception

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an adapter failure. Timeout and RateLimited are
// transient and worth retrying; the other kinds are not.
type ErrorKind string

const (
	ErrorTimeout         ErrorKind = "timeout"
	ErrorRateLimited     ErrorKind = "rate_limited"
	ErrorInvalidResponse ErrorKind = "invalid_response"
	ErrorUnauthorized    ErrorKind = "unauthorized"
)

// Error wraps a failed external perception call with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient.
func (e *Error) Retryable() bool {
	return e.Kind == ErrorTimeout || e.Kind == ErrorRateLimited
}

// KindOf extracts the error kind from an error chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
