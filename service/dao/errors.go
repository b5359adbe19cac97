package dao

import "errors"

// Sentinel errors shared by request store implementations; callers detect
// them with errors.Is.

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("dao: not found")

	// ErrConflict is returned when a unique key (correlation key) is already taken.
	ErrConflict = errors.New("dao: conflict")

	// ErrInvalidID indicates that the supplied ID/key is empty.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned when the caller attempts to persist a nil pointer.
	ErrNilEntity = errors.New("dao: nil entity")
)
