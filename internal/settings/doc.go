// Package settings provides the persistent operator settings store.
//
// Settings cover everything the start-gate operator can tune: default cue
// delays, the allowed total-time window, gate-open duration, the
// beep/relay alignment offset, audio assets and volume, and UI refresh
// intervals.
//
// The store is a single SQLite row seeded by migrations. The sequence
// engine reads settings at the start of each run (never cached across
// runs), so a calibration change takes effect on the next start without
// a restart.
//
// # Key Types
//
//   - Settings: The full tunable parameter set
//   - Repository: Persistence interface (SQLite implementation provided)
package settings
