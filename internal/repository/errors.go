package repository

import "errors"

// Repository errors
var (
	// ErrDuplicateKey indicates a license key or id collision.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStaleState indicates a conditional update matched no row in the
	// expected state.
	ErrStaleState = errors.New("record not in expected state")
)
