package settings

import "time"

// Settings holds the operator-tunable parameters for the start sequence.
//
// These are persisted so calibration survives restarts; the sequence engine
// reads them fresh at the start of every run rather than caching them.
type Settings struct {
	// DefaultDelay1 is the default time from cue 1 to cue 2, in seconds.
	DefaultDelay1 float64 `json:"default_delay1"`

	// DefaultDelay2 is the default time from cue 2 to cue 3, in seconds.
	DefaultDelay2 float64 `json:"default_delay2"`

	// DefaultGateDelay is the default pause between cue 3 and gate-open, in seconds.
	DefaultGateDelay float64 `json:"default_gate_delay"`

	// MinTotalTime is the minimum allowed total sequence time, in seconds.
	MinTotalTime float64 `json:"min_total_time"`

	// MaxTotalTime is the maximum allowed total sequence time, in seconds.
	MaxTotalTime float64 `json:"max_total_time"`

	// GateOpenDuration is how long the relay stays active before auto-reset,
	// in seconds. It is part of the total sequence time.
	GateOpenDuration float64 `json:"gate_open_duration"`

	// AlignmentOffset shifts relay activation relative to the final cue,
	// in signed seconds. Negative fires the relay before the cue,
	// calibrating for mechanical lag in the gate release.
	AlignmentOffset float64 `json:"alignment_offset"`

	// AudioVolume is the playback volume, 0.0 to 1.0.
	AudioVolume float64 `json:"audio_volume"`

	// Cue1File, Cue2File, Cue3File are the audio asset filenames within
	// the configured audio directory.
	Cue1File string `json:"cue1_file"`
	Cue2File string `json:"cue2_file"`
	Cue3File string `json:"cue3_file"`

	// AutoRefreshMS is the UI status poll interval in milliseconds.
	AutoRefreshMS int `json:"auto_refresh_ms"`

	// CountdownUpdateMS is the UI countdown refresh interval in milliseconds.
	CountdownUpdateMS int `json:"countdown_update_ms"`

	// UpdatedAt is when the settings row was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the settings for internal consistency.
func (s *Settings) Validate() error {
	if s.DefaultDelay1 < 0 || s.DefaultDelay2 < 0 || s.DefaultGateDelay < 0 {
		return ErrInvalidSettings
	}
	if s.MinTotalTime <= 0 || s.MaxTotalTime <= s.MinTotalTime {
		return ErrInvalidSettings
	}
	if s.GateOpenDuration <= 0 {
		return ErrInvalidSettings
	}
	if s.AudioVolume < 0 || s.AudioVolume > 1 {
		return ErrInvalidSettings
	}
	if s.Cue1File == "" || s.Cue2File == "" || s.Cue3File == "" {
		return ErrInvalidSettings
	}
	if s.AutoRefreshMS < 1 || s.CountdownUpdateMS < 1 {
		return ErrInvalidSettings
	}
	return nil
}
