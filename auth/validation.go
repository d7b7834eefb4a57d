package auth

import (
	"net/mail"
	"strings"
)

// Credentials is the input shape of a login request. Validation is an
// explicit schema checked before any store access: required fields and their
// constraints are enumerated here rather than configured dynamically.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields and email syntax. It returns a
// ValidationError listing every failed field.
func (c Credentials) Validate() error {
	fields := map[string][]string{}
	if err := validateEmailField(c.Email); err != "" {
		fields["email"] = append(fields["email"], err)
	}
	if strings.TrimSpace(c.Password) == "" {
		fields["password"] = append(fields["password"], "The password field is required.")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateEmail checks a single email value the same way Credentials does.
func ValidateEmail(email string) error {
	if msg := validateEmailField(email); msg != "" {
		return NewValidationError("email", msg)
	}
	return nil
}

func validateEmailField(email string) string {
	if strings.TrimSpace(email) == "" {
		return "The email field is required."
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return "The email field must be a valid email address."
	}
	return ""
}
