package forum

import (
	"errors"
	"fmt"
	"net/http"
)

// Typed errors for backend calls. Callers use errors.Is() for reliable
// detection instead of string matching; no raw transport error leaves this
// package.
var (
	// ErrUnauthorized indicates the backend rejected the token (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the request was rejected for insufficient
	// permissions (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates the request was malformed or invalid (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrPayloadTooLarge indicates an upload exceeded the backend's size
	// limit (HTTP 413).
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrServer indicates a backend-side failure (HTTP 5xx).
	ErrServer = errors.New("server error")
)

// StatusError is returned for any non-2xx backend response. It unwraps to
// one of the sentinels above and reports auth expiry to the core packages
// without them importing this package.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
}

// Unwrap maps the status code onto the matching sentinel.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLarge
	}
	if e.StatusCode >= 500 {
		return ErrServer
	}
	return nil
}

// AuthExpired reports whether the backend rejected the session token.
// Satisfies the feed package's auth-error interface.
func (e *StatusError) AuthExpired() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthError returns true if the error means the session is invalid and the
// user must re-authenticate.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}
