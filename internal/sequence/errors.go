package sequence

import "errors"

// Domain errors for the sequence package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, sequence.ErrAlreadyRunning) {
//	    // reject the start request
//	}
var (
	// ErrAlreadyRunning is returned when a start request arrives while a
	// run is in flight. Requests are rejected, never queued.
	ErrAlreadyRunning = errors.New("sequence: already running")

	// ErrNotRunning is returned when a stop request arrives while idle.
	ErrNotRunning = errors.New("sequence: not running")

	// ErrOutOfRange is returned when the implied total sequence time
	// falls outside the configured [min, max] window.
	ErrOutOfRange = errors.New("sequence: total time out of range")
)
