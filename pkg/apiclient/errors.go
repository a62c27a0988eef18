package apiclient

import (
	"errors"
	"fmt"
	"net"
)

// ErrUnauthorized is returned when the appliance rejects the session
// (HTTP 401 or 403).
var ErrUnauthorized = errors.New("unauthorized")

// TransportError reports a request that did not produce a usable response:
// network failure, timeout, or rejected credentials.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because the per-call timeout
// elapsed.
func (e *TransportError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// IsAuthError reports whether the appliance rejected the session.
func (e *TransportError) IsAuthError() bool {
	return errors.Is(e.Err, ErrUnauthorized)
}

// IsTransportError reports whether err is (or wraps) a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
