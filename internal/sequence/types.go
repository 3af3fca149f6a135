package sequence

// Kind identifies which variant of timeline a run executes.
//
// A standard run plays all three cues at operator-chosen delays. A
// calibration run skips the first two cues and uses a fixed silent
// lead-in, so the operator can tune the beep/relay alignment offset
// without sitting through a full sequence.
type Kind string

const (
	// KindStandard is the full three-cue start sequence.
	KindStandard Kind = "standard"

	// KindCalibration is the shortened alignment-calibration sequence.
	KindCalibration Kind = "calibration"
)

// Phase is the externally observable phase of the sequence.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseDelay1      Phase = "delay1"
	PhaseDelay2      Phase = "delay2"
	PhaseGateDelay   Phase = "gate_delay"
	PhaseGateOpen    Phase = "gate_open"
	PhaseTestSilence Phase = "test_silence"
	PhaseComplete    Phase = "complete"
)

// Parameters is the operator input for a standard run.
// All values are in seconds.
type Parameters struct {
	// Delay1 is the time from cue 1 to cue 2.
	Delay1 float64 `json:"delay1"`

	// Delay2 is the time from cue 2 to cue 3.
	Delay2 float64 `json:"delay2"`

	// GateDelay is an optional pause between cue 3 and gate-open.
	GateDelay float64 `json:"gate_delay"`
}

// Timeline is the plan for one run: each named event as an offset from
// the start instant, in seconds. Immutable once built.
//
// Invariants: Cue1 = 0 <= Cue2 <= Cue3 <= GateOpen <= Reset.
// RelayActivation may precede Cue3 (never Cue2, enforced by clamping)
// when the alignment offset is negative, or follow GateOpen when it is
// positive.
type Timeline struct {
	Kind            Kind    `json:"kind"`
	Cue1            float64 `json:"cue1"`
	Cue2            float64 `json:"cue2"`
	Cue3            float64 `json:"cue3"`
	GateOpen        float64 `json:"gate_open"`
	RelayActivation float64 `json:"relay_activation"`
	Reset           float64 `json:"reset"`
}

// TotalTime returns the full duration of the run in seconds.
func (t Timeline) TotalTime() float64 {
	return t.Reset
}

// Snapshot is a point-in-time view of the sequence for external observers.
// All time fields are in seconds.
type Snapshot struct {
	Running     bool      `json:"running"`
	Phase       Phase     `json:"phase"`
	CurrentTime float64   `json:"current_time"`
	TotalTime   float64   `json:"total_time"`
	Countdown   float64   `json:"countdown"`
	RelayActive bool      `json:"relay_active"`
	Timeline    *Timeline `json:"timeline,omitempty"`
}
