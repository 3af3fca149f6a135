package audio

import "errors"

// Domain errors for the audio package.
//
// Playback errors are never fatal to a running sequence; callers log them
// and continue.
var (
	// ErrAssetNotFound is returned when a cue's audio file is missing
	// from the configured audio directory.
	ErrAssetNotFound = errors.New("audio: asset not found")

	// ErrPlayerUnavailable is returned when the playback binary cannot
	// be started.
	ErrPlayerUnavailable = errors.New("audio: player unavailable")
)
