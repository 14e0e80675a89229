package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when registration collides with an existing account.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication material does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its validity window.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token has been explicitly revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrResetTokenInvalid is returned when a password reset token is unknown,
	// expired, or already consumed.
	ErrResetTokenInvalid = errors.New("application: reset token invalid")
	// ErrTokenSpaceExhausted is returned when meeting token generation keeps
	// colliding with stored tokens after the bounded retry budget.
	ErrTokenSpaceExhausted = errors.New("application: could not allocate a unique meeting token")
)

// ValidationError reports the first field that failed validation. Checks run
// in a fixed order and stop at the first failure so error messages stay
// deterministic.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("validation failed: %s: %s", v.Field, v.Message)
}

// InvalidTransitionError reports an attempted transition out of a terminal
// meeting state.
type InvalidTransitionError struct {
	From Status
	To   Status
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}
