package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds = errors.New("index out of range")
	ErrNoRuntime   = errors.New("no interpreter")

	// ErrEditDeclined is returned when the user declines to re-edit a
	// script that failed to parse.
	ErrEditDeclined = errors.New("edit declined")
)
