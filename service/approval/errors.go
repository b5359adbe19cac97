package approval

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the actor may not submit or decide.
	ErrUnauthorized = errors.New("approval: actor is not authorized")

	// ErrNotFound is returned when no request matches the correlation key.
	ErrNotFound = errors.New("approval: request not found")

	// ErrDuplicate is returned when an equivalent request already exists.
	ErrDuplicate = errors.New("approval: duplicate request")

	// ErrInvalidInput is returned for malformed submissions or decisions.
	ErrInvalidInput = errors.New("approval: invalid input")
)

func wrapInvalid(message string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, message)
}
