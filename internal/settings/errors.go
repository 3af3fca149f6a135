package settings

import "errors"

// Domain errors for the settings package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, settings.ErrNotFound) {
//	    // handle missing settings row
//	}
var (
	// ErrNotFound is returned when the settings row does not exist.
	// This indicates migrations have not been run.
	ErrNotFound = errors.New("settings: not found")

	// ErrInvalidSettings is returned when settings validation fails.
	ErrInvalidSettings = errors.New("settings: invalid values")
)
