package storage

import "errors"

// Storage error constants
var (
	// ErrNotConnected is returned when the database handle has no live connection
	ErrNotConnected = errors.New("database not connected")

	// errDialPanicked marks an attempt whose dialer panicked instead of returning
	errDialPanicked = errors.New("database connection attempt panicked")
)
