package relay

import (
	"errors"
	"sync"
	"testing"
)

// fakeLine records values written to the hardware surface.
type fakeLine struct {
	mu     sync.Mutex
	values []int
	failed bool
	closed bool
}

func (f *fakeLine) SetValue(v int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return errors.New("write failed")
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeLine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeLine) written() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	cpy := make([]int, len(f.values))
	copy(cpy, f.values)
	return cpy
}

// newSimDriver returns a driver in simulation mode without touching GPIO.
func newSimDriver() *Driver {
	return &Driver{activeHigh: true, logger: noopLogger{}}
}

// newFakeDriver returns a hardware-bound driver backed by a fakeLine.
func newFakeDriver(activeHigh bool) (*Driver, *fakeLine) {
	line := &fakeLine{}
	return &Driver{line: line, activeHigh: activeHigh, logger: noopLogger{}}, line
}

func TestNew_FallsBackToSimulation(t *testing.T) {
	// A chip that cannot exist forces the simulated path.
	d := New(Config{Chip: "gpiochip-nonexistent", Line: 17, ActiveHigh: true}, nil)

	if d.Available() {
		t.Error("Available() = true, want false for missing chip")
	}

	// Simulated relay still tracks logical state.
	d.Activate()
	if !d.IsActive() {
		t.Error("IsActive() = false after Activate() in simulation mode")
	}
	d.Deactivate()
	if d.IsActive() {
		t.Error("IsActive() = true after Deactivate()")
	}
}

func TestActivate_Idempotent(t *testing.T) {
	d, line := newFakeDriver(true)

	d.Activate()
	d.Activate()
	d.Activate()

	if got := line.written(); len(got) != 1 {
		t.Errorf("hardware writes = %v, want a single write", got)
	}
	if !d.IsActive() {
		t.Error("IsActive() = false, want true")
	}
}

func TestDeactivate_IdempotentAndSafeWhenNeverActivated(t *testing.T) {
	d, line := newFakeDriver(true)

	d.Deactivate()
	d.Deactivate()

	if got := line.written(); len(got) != 0 {
		t.Errorf("hardware writes = %v, want none for already-inactive relay", got)
	}
	if d.IsActive() {
		t.Error("IsActive() = true, want false")
	}
}

func TestPolarity(t *testing.T) {
	tests := []struct {
		name       string
		activeHigh bool
		wantOn     int
		wantOff    int
	}{
		{"active high", true, 1, 0},
		{"active low", false, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, line := newFakeDriver(tt.activeHigh)

			d.Activate()
			d.Deactivate()

			got := line.written()
			if len(got) != 2 || got[0] != tt.wantOn || got[1] != tt.wantOff {
				t.Errorf("writes = %v, want [%d %d]", got, tt.wantOn, tt.wantOff)
			}
		})
	}
}

func TestHardwareFailure_LogicalStateStillUpdates(t *testing.T) {
	d, line := newFakeDriver(true)
	line.failed = true

	d.Activate()

	if !d.IsActive() {
		t.Error("IsActive() = false after failed hardware write, want logical state updated")
	}
}

func TestClose_DeactivatesAndReleases(t *testing.T) {
	d, line := newFakeDriver(true)

	d.Activate()
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !line.closed {
		t.Error("line not closed")
	}
	got := line.written()
	if len(got) == 0 || got[len(got)-1] != 0 {
		t.Errorf("writes = %v, want final write to drive line inactive", got)
	}
	if d.Available() {
		t.Error("Available() = true after Close()")
	}
}
