package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks transport-level failures: unreachable server,
	// connection reset, timeout.
	ErrUnavailable = errors.New("server unavailable")

	// ErrInvalidCredentials marks a non-2xx response from the identity
	// service. A server-supplied message, when present, travels in a
	// wrapping StatusError.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMalformedResponse marks a 2xx response whose body is not valid
	// JSON.
	ErrMalformedResponse = errors.New("malformed server response")
)

// StatusError carries the HTTP status and the server-attributed message of a
// rejected authentication attempt. It unwraps to ErrInvalidCredentials so
// callers can branch on the error kind without losing the message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	return ErrInvalidCredentials
}

// ServerMessage extracts the server-attributed message from err, if any.
func ServerMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}
