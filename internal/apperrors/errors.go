// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import "errors"

var (
	// ErrInvalidCredentials is returned on login when the email is unknown or the
	// password does not match. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled is returned on login when the account exists but is inactive
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrNotFound is returned when no user matches the requested ID
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned when an insert or update hits the unique email constraint
	ErrAlreadyExists = errors.New("email already registered")
	// ErrMissingSecret is returned when token issuance is attempted without a signing secret
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

// ValidationError is a bad-request error carrying a client-safe message
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
