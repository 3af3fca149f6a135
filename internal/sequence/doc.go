// Package sequence implements the start-gate sequence engine: timeline
// computation, run execution, live status derivation, and event fan-out.
//
// A run is a fixed timeline of offsets from a start instant: three audio
// cues, a relay activation aligned to the final cue by a signed offset,
// a gate-open hold, and a reset back to idle. The Engine executes at most
// one run at a time; concurrent start attempts are rejected, never queued.
//
// # Timelines
//
// NewTimeline builds the standard three-cue timeline from the operator's
// delays; NewCalibrationTimeline builds the silent variant used to tune
// the alignment offset, where the first two cues collapse to zero and a
// short lead-in precedes the final cue. Both clamp a negative alignment
// offset so the relay can never fire before the second cue.
//
// # Execution
//
// The run goroutine waits on absolute instants derived from the timeline,
// polling for cancellation at 100ms granularity. Cleanup is unconditional
// on every exit path: the relay is deactivated before the engine state
// returns to idle, so no observer sees an open gate on an idle engine.
//
// # Status
//
// Status snapshots are derived from the timeline and the wall clock, not
// from the run goroutine, so reads never block on run progress. The relay
// state is authoritative for the gate_open phase.
package sequence
