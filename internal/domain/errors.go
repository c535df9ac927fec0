// Package domain holds shared types and errors used across modules.
package domain

import "errors"

// Sentinel errors shared by repositories and services. Handlers map these to
// HTTP status codes: validation/duplicate -> 400, credentials -> 401,
// ownership -> 403, not found -> 404.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicate indicates a uniqueness constraint would be violated
	ErrDuplicate = errors.New("resource already exists")

	// ErrNotOwner indicates the resource belongs to a different user
	ErrNotOwner = errors.New("unauthorized access to resource")

	// ErrInvalidCredentials indicates a failed login attempt. The message is
	// deliberately generic so it cannot be used to probe which emails exist.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError indicates malformed or out-of-range input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
