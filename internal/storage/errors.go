package storage

import "errors"

// Storage errors for append-only stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a unique key (user email, instrument
	// symbol) is already taken.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownInstrument is returned when a write references an instrument
	// that does not exist.
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrUnknownUser is returned when a write references a user that does not exist.
	ErrUnknownUser = errors.New("unknown user")
)
