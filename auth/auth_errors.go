package auth

import "errors"

var (
	// ErrUnauthorized covers both unknown-email and wrong-password logins;
	// callers cannot tell the two cases apart.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnauthenticated means the caller presented no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports malformed or missing input, keyed by field.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}
