package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the token is missing, expired, or rejected. The
	// caller has to sign in again; nothing in a session recovers from it.
	ErrUnauthorized = errors.New("not authorized")

	// ErrAccessDenied means the resource is gated (premium-only lessons).
	// It is an expected outcome that callers turn into an upgrade prompt.
	ErrAccessDenied = errors.New("access denied")

	// ErrEmptyAnswer is returned for explanation requests without an answer.
	ErrEmptyAnswer = errors.New("empty answer")
)

// StatusError is a non-2xx response other than 401 and 403.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
