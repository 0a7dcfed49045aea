package compose

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired indicates no session token was present. Detected
	// locally, before any network call.
	ErrAuthRequired = errors.New("authentication required")

	// ErrUploadFailed indicates the phase-one image upload failed. The post
	// record is never created without its intended image.
	ErrUploadFailed = errors.New("image upload failed")

	// ErrCreateFailed indicates the phase-two create call failed. An already
	// uploaded image is not deleted by the client; orphan cleanup is the
	// backend's responsibility.
	ErrCreateFailed = errors.New("create post failed")
)

// ValidationError reports an empty required draft field. Never reaches the
// network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if err is a validation error.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// authExpiredError mirrors the feed package's transport-agnostic auth
// detection.
type authExpiredError interface {
	error
	AuthExpired() bool
}

func isAuthExpired(err error) bool {
	var ae authExpiredError
	return errors.As(err, &ae) && ae.AuthExpired()
}
