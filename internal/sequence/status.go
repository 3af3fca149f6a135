package sequence

import "time"

// Status returns a snapshot of the engine state.
//
// The snapshot is derived from the run's timeline and the wall clock, not
// from the run goroutine, so status reads never block on the run. The
// relay's logical state is authoritative for the gate-open phase: the
// moment the relay is active the phase is gate_open regardless of where
// the clock falls, which keeps negative alignment offsets honest.
func (e *Engine) Status() Snapshot {
	return e.statusAt(time.Now())
}

// statusAt derives the snapshot for a given instant. Split out from
// Status so phase derivation is testable at exact offsets.
func (e *Engine) statusAt(now time.Time) Snapshot {
	e.mu.RLock()
	running := e.running
	tl := e.timeline
	started := e.startedAt
	e.mu.RUnlock()

	if !running {
		return Snapshot{Phase: PhaseIdle}
	}

	elapsed := now.Sub(started).Seconds()
	relayActive := e.relay.IsActive()

	snap := Snapshot{
		Running:     true,
		CurrentTime: elapsed,
		TotalTime:   tl.TotalTime(),
		RelayActive: relayActive,
		Timeline:    &tl,
	}
	snap.Phase, snap.Countdown = derivePhase(tl, elapsed, relayActive)
	return snap
}

// derivePhase maps an elapsed offset onto the timeline. The relay check
// sits ahead of the later interval checks so an early relay activation
// reports gate_open even while the final cue is still pending.
func derivePhase(tl Timeline, elapsed float64, relayActive bool) (Phase, float64) {
	if tl.Kind == KindCalibration {
		switch {
		case elapsed < tl.Cue3:
			return PhaseTestSilence, tl.Cue3 - elapsed
		case relayActive:
			return PhaseGateOpen, 0
		default:
			return PhaseComplete, 0
		}
	}

	switch {
	case elapsed < tl.Cue2:
		return PhaseDelay1, tl.Cue2 - elapsed
	case relayActive:
		return PhaseGateOpen, 0
	case elapsed < tl.Cue3:
		return PhaseDelay2, tl.Cue3 - elapsed
	case elapsed < tl.GateOpen:
		return PhaseGateDelay, tl.GateOpen - elapsed
	default:
		return PhaseComplete, 0
	}
}
