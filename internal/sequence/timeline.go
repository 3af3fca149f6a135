package sequence

// CalibrationLeadIn is the fixed silent lead-in before the final cue in a
// calibration run, in seconds.
const CalibrationLeadIn = 3.0

// NewTimeline computes the event plan for a standard run.
//
// The relay activation point models the mechanical lag between the
// audible final cue and the physical gate release:
//   - alignmentOffset >= 0: the relay fires that many seconds after the
//     gate-open instant.
//   - alignmentOffset < 0: the relay fires that many seconds before
//     cue 3, clamped so it never precedes cue 2. The clamp means an
//     offset larger than delay2 activates the relay immediately at cue 2
//     rather than raising an error.
//
// Construction never fails; validation of the total-time window is the
// caller's responsibility and happens before this is invoked.
//
// Parameters:
//   - p: Operator delays (all >= 0)
//   - gateOpenDuration: How long the relay holds the gate open (> 0)
//   - alignmentOffset: Signed relay shift relative to the final cue
//
// Returns:
//   - Timeline: Immutable event plan with Kind = KindStandard
func NewTimeline(p Parameters, gateOpenDuration, alignmentOffset float64) Timeline {
	cue2 := p.Delay1
	cue3 := p.Delay1 + p.Delay2
	gateOpen := cue3 + p.GateDelay

	return Timeline{
		Kind:            KindStandard,
		Cue1:            0,
		Cue2:            cue2,
		Cue3:            cue3,
		GateOpen:        gateOpen,
		RelayActivation: relayActivation(cue2, cue3, gateOpen, alignmentOffset),
		Reset:           gateOpen + gateOpenDuration,
	}
}

// NewCalibrationTimeline computes the event plan for a calibration run:
// no cue 1/cue 2, a fixed 3-second lead-in to the final cue, and the
// same relay-offset policy as a standard run.
//
// Parameters:
//   - gateOpenDuration: How long the relay holds the gate open (> 0)
//   - alignmentOffset: Signed relay shift relative to the final cue
//
// Returns:
//   - Timeline: Immutable event plan with Kind = KindCalibration
func NewCalibrationTimeline(gateOpenDuration, alignmentOffset float64) Timeline {
	cue3 := CalibrationLeadIn

	return Timeline{
		Kind:            KindCalibration,
		Cue1:            0,
		Cue2:            0,
		Cue3:            cue3,
		GateOpen:        cue3,
		RelayActivation: relayActivation(0, cue3, cue3, alignmentOffset),
		Reset:           cue3 + gateOpenDuration,
	}
}

// relayActivation applies the alignment-offset policy.
func relayActivation(cue2, cue3, gateOpen, offset float64) float64 {
	if offset >= 0 {
		return gateOpen + offset
	}
	at := cue3 + offset
	if at < cue2 {
		return cue2
	}
	return at
}

// TotalTime returns the implied total duration of a standard run, used
// for validation against the configured [min, max] window before a
// timeline is built.
func TotalTime(p Parameters, gateOpenDuration float64) float64 {
	return p.Delay1 + p.Delay2 + p.GateDelay + gateOpenDuration
}
