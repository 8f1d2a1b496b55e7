package domain

import (
	"errors"
	"strings"
)

// ErrInvalidCredentials is the only message ever shown for a failed
// password sign-in. Unknown email, passwordless account and wrong password
// all map here so responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("admin access required")
	ErrEmailTaken      = errors.New("user with this email already exists")
	ErrNotFound        = errors.New("user not found")
)

// ValidationError reports one or more rejected input fields. Details holds
// every violation so a client can surface all of them at once.
type ValidationError struct {
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

func NewValidationError(message string, details ...string) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
