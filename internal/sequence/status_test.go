package sequence

import (
	"testing"
	"time"
)

// phaseEngine builds an engine with a fabricated in-flight run so phase
// derivation can be probed at exact offsets.
func phaseEngine(tl Timeline, relayActive bool) *Engine {
	relay := &mockRelay{active: relayActive}
	e := NewEngine(relay, &mockPlayer{}, &mockStore{settings: testSettings()}, nil, nil, nil)
	e.running = true
	e.runID = "test-run"
	e.timeline = tl
	e.startedAt = time.Now()
	return e
}

func TestStatusIdle(t *testing.T) {
	e := newTestEngine(&mockRelay{}, &mockPlayer{}, &mockStore{settings: testSettings()}, nil)

	snap := e.Status()
	if snap.Running {
		t.Error("idle engine reports running")
	}
	if snap.Phase != PhaseIdle {
		t.Errorf("Phase = %v, want %v", snap.Phase, PhaseIdle)
	}
	if snap.Timeline != nil {
		t.Errorf("Timeline = %+v, want nil", snap.Timeline)
	}
}

func TestStatusPhaseDerivation(t *testing.T) {
	standard := NewTimeline(Parameters{Delay1: 5, Delay2: 8, GateDelay: 0}, 3, 0)
	withGateDelay := NewTimeline(Parameters{Delay1: 4, Delay2: 6, GateDelay: 2}, 3, 0)
	earlyRelay := NewTimeline(Parameters{Delay1: 5, Delay2: 8, GateDelay: 0}, 3, -0.5)
	calibration := NewCalibrationTimeline(3, 0)

	tests := []struct {
		name          string
		tl            Timeline
		elapsed       float64
		relayActive   bool
		wantPhase     Phase
		wantCountdown float64
	}{
		{
			name: "first delay", tl: standard, elapsed: 2,
			wantPhase: PhaseDelay1, wantCountdown: 3,
		},
		{
			name: "second delay", tl: standard, elapsed: 6,
			wantPhase: PhaseDelay2, wantCountdown: 7,
		},
		{
			name: "gate open", tl: standard, elapsed: 13.5, relayActive: true,
			wantPhase: PhaseGateOpen, wantCountdown: 0,
		},
		{
			name: "gate delay pause", tl: withGateDelay, elapsed: 11,
			wantPhase: PhaseGateDelay, wantCountdown: 1,
		},
		{
			name: "early relay reports gate open before final cue",
			tl:   earlyRelay, elapsed: 12.7, relayActive: true,
			wantPhase: PhaseGateOpen, wantCountdown: 0,
		},
		{
			name: "past reset with relay off", tl: standard, elapsed: 16.5,
			wantPhase: PhaseComplete, wantCountdown: 0,
		},
		{
			name: "calibration lead-in", tl: calibration, elapsed: 1,
			wantPhase: PhaseTestSilence, wantCountdown: 2,
		},
		{
			name: "calibration gate open", tl: calibration, elapsed: 3.5, relayActive: true,
			wantPhase: PhaseGateOpen, wantCountdown: 0,
		},
		{
			name: "calibration complete", tl: calibration, elapsed: 6.5,
			wantPhase: PhaseComplete, wantCountdown: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := phaseEngine(tt.tl, tt.relayActive)
			at := e.startedAt.Add(time.Duration(tt.elapsed * float64(time.Second)))

			snap := e.statusAt(at)

			if !snap.Running {
				t.Fatal("snapshot not running")
			}
			if snap.Phase != tt.wantPhase {
				t.Errorf("Phase = %v, want %v", snap.Phase, tt.wantPhase)
			}
			if !almostEqual(snap.Countdown, tt.wantCountdown) {
				t.Errorf("Countdown = %v, want %v", snap.Countdown, tt.wantCountdown)
			}
			if !almostEqual(snap.CurrentTime, tt.elapsed) {
				t.Errorf("CurrentTime = %v, want %v", snap.CurrentTime, tt.elapsed)
			}
			if !almostEqual(snap.TotalTime, tt.tl.TotalTime()) {
				t.Errorf("TotalTime = %v, want %v", snap.TotalTime, tt.tl.TotalTime())
			}
			if snap.RelayActive != tt.relayActive {
				t.Errorf("RelayActive = %v, want %v", snap.RelayActive, tt.relayActive)
			}
		})
	}
}
