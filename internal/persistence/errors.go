package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint (regno, email) is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrDuplicateToken is returned when a meeting token collides with an existing one.
	ErrDuplicateToken = errors.New("persistence: duplicate meeting token")
	// ErrStaleStatus is returned when a conditional status update matched no row
	// because the meeting already left the expected state.
	ErrStaleStatus = errors.New("persistence: meeting status changed concurrently")
	// ErrConstraintViolation is returned for check or not-null constraint failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
