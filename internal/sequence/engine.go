package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lugegod/LugeRelay/internal/settings"
)

// Relay is the interface the engine needs from the relay driver.
type Relay interface {
	// Activate energises the relay; redundant calls are no-ops.
	Activate()

	// Deactivate de-energises the relay; safe on an inactive relay.
	Deactivate()

	// IsActive reports the logical relay state.
	IsActive() bool
}

// CuePlayer is the interface the engine needs from the audio player.
type CuePlayer interface {
	// Play starts asynchronous playback of the named asset.
	// Errors are non-fatal to the run.
	Play(filename string) error
}

// SettingsSource provides the operator settings, read fresh at the start
// of every run so calibration changes apply without a restart.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// defaultTick is the cancellation polling granularity. A stop request
// takes effect within one tick, which is well inside the domain's
// timing tolerance.
const defaultTick = 100 * time.Millisecond

// Engine executes start sequences.
//
// It owns the single run lifecycle: at most one run is in flight, start
// requests while running are rejected (never queued), and a stop request
// forces the relay off and returns only after the run state is back to
// idle. All run state lives behind one mutex; the run itself executes in
// a background goroutine whose waits are absolute offsets from the start
// instant, so an overrun in one step does not push later steps (drift is
// bounded by the plan, not accumulated).
//
// Thread Safety: all methods are safe for concurrent use. Status is a
// non-blocking read and never waits on the run goroutine.
type Engine struct {
	relay  Relay
	player CuePlayer
	store  SettingsSource
	pub    Publisher
	hub    Broadcaster
	logger Logger
	tick   time.Duration

	mu        sync.RWMutex
	running   bool
	runID     string
	timeline  Timeline
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// runPlan carries everything a run goroutine needs, fixed at start time.
type runPlan struct {
	id    string
	tl    Timeline
	cues  [3]string
	start time.Time
}

// at converts a timeline offset to an absolute instant.
func (p runPlan) at(offset float64) time.Time {
	return p.start.Add(time.Duration(offset * float64(time.Second)))
}

// NewEngine creates a sequence engine.
//
// Parameters:
//   - relay: Gate-release relay driver
//   - player: Audio cue player
//   - store: Settings source, read at the start of every run
//   - pub: MQTT publisher for lifecycle events (may be nil)
//   - hub: WebSocket broadcaster for lifecycle events (may be nil)
//   - logger: Logger instance (nil for no logging)
func NewEngine(relay Relay, player CuePlayer, store SettingsSource, pub Publisher, hub Broadcaster, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		relay:  relay,
		player: player,
		store:  store,
		pub:    pub,
		hub:    hub,
		logger: logger,
		tick:   defaultTick,
	}
}

// Start begins a standard three-cue run.
//
// The total time implied by the parameters and the configured gate-open
// duration must fall within the settings' [min, max] window.
//
// Parameters:
//   - ctx: Context for the settings read (not the run itself; the run
//     outlives the request that started it)
//   - p: Operator delays
//
// Returns:
//   - string: The run ID
//   - error: ErrOutOfRange, ErrAlreadyRunning, or a settings read failure
func (e *Engine) Start(ctx context.Context, p Parameters) (string, error) {
	s, err := e.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("reading settings: %w", err)
	}

	if p.Delay1 < 0 || p.Delay2 < 0 || p.GateDelay < 0 {
		return "", ErrOutOfRange
	}
	total := TotalTime(p, s.GateOpenDuration)
	if total < s.MinTotalTime || total > s.MaxTotalTime {
		return "", fmt.Errorf("%w: %.1fs outside [%.1f, %.1f]",
			ErrOutOfRange, total, s.MinTotalTime, s.MaxTotalTime)
	}

	tl := NewTimeline(p, s.GateOpenDuration, s.AlignmentOffset)
	return e.launch(tl, [3]string{s.Cue1File, s.Cue2File, s.Cue3File})
}

// StartCalibration begins a calibration run with the given alignment
// offset. The offset is taken from the request, not the settings, so the
// operator can try values before saving one.
//
// Returns:
//   - string: The run ID
//   - error: ErrAlreadyRunning or a settings read failure
func (e *Engine) StartCalibration(ctx context.Context, offset float64) (string, error) {
	s, err := e.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("reading settings: %w", err)
	}

	tl := NewCalibrationTimeline(s.GateOpenDuration, offset)
	return e.launch(tl, [3]string{s.Cue1File, s.Cue2File, s.Cue3File})
}

// launch atomically claims the single run slot and spawns the run
// goroutine. The claim check and the claim itself happen under one lock,
// so two concurrent starts can never both succeed.
func (e *Engine) launch(tl Timeline, cues [3]string) (string, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return "", ErrAlreadyRunning
	}

	// The run context is independent of any request context: the HTTP
	// request that started the run finishes long before the run does.
	runCtx, cancel := context.WithCancel(context.Background())

	id := uuid.NewString()
	e.running = true
	e.runID = id
	e.timeline = tl
	e.startedAt = time.Now()
	e.cancel = cancel
	e.done = make(chan struct{})

	plan := runPlan{id: id, tl: tl, cues: cues, start: e.startedAt}
	done := e.done
	e.mu.Unlock()

	e.logger.Info("sequence started",
		"run_id", id,
		"kind", tl.Kind,
		"total_time", tl.TotalTime(),
	)
	e.publishEvent(Event{Type: EventStarted, RunID: id, Kind: tl.Kind})

	go e.run(runCtx, plan, done)
	return id, nil
}

// Stop cancels the in-flight run.
//
// The relay is forced off immediately and the call returns only after
// the run goroutine has finished its cleanup, so the state observed by
// a status read immediately after Stop is idle. The run goroutine
// observes the cancellation within one polling tick.
//
// Returns:
//   - error: ErrNotRunning if no run is in flight
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrNotRunning
	}

	// Deactivate and cancel while the run slot is still held, so the
	// observed run cannot complete and be replaced by a new one in
	// between; Stop must never act on a run it did not check. The run
	// goroutine's own cleanup deactivates again, which is idempotent.
	e.relay.Deactivate()
	e.cancel()
	done := e.done
	e.mu.Unlock()

	<-done

	e.logger.Info("sequence stopped")
	return nil
}

// run executes one timeline to completion or cancellation.
//
// Every wait targets an absolute instant from the plan. Cleanup is
// unconditional: whatever the exit path, the relay is deactivated before
// the run state returns to idle.
func (e *Engine) run(ctx context.Context, plan runPlan, done chan struct{}) {
	completed := false
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in sequence run", "run_id", plan.id, "panic", r)
		}
		e.finish(plan, completed)
		close(done)
	}()

	tl := plan.tl

	// Relay fires before the final cue when the alignment offset is negative.
	preRelay := tl.RelayActivation < tl.Cue3

	if tl.Kind == KindStandard {
		e.playCue(plan, 1)

		if !e.waitUntil(ctx, plan.at(tl.Cue2)) {
			return
		}
		e.playCue(plan, 2)
	}

	if preRelay {
		if !e.waitUntil(ctx, plan.at(tl.RelayActivation)) {
			return
		}
		e.setRelay(plan, true)
	}

	if !e.waitUntil(ctx, plan.at(tl.Cue3)) {
		return
	}
	e.playCue(plan, 3)

	if !preRelay {
		if !e.waitUntil(ctx, plan.at(tl.RelayActivation)) {
			return
		}
		e.setRelay(plan, true)
	}

	// Hold the gate open until the plan's reset instant.
	if !e.waitUntil(ctx, plan.at(tl.Reset)) {
		return
	}
	completed = true
}

// finish is the unconditional cleanup for every exit path: relay off
// first, then run state back to idle, in that order, so no observer can
// ever see an active relay with an idle phase.
func (e *Engine) finish(plan runPlan, completed bool) {
	e.relay.Deactivate()
	e.publishRelayState(false)

	e.mu.Lock()
	e.running = false
	e.runID = ""
	e.timeline = Timeline{}
	e.startedAt = time.Time{}
	e.cancel = nil
	e.mu.Unlock()

	evtType := EventStopped
	if completed {
		evtType = EventCompleted
		e.logger.Info("sequence completed", "run_id", plan.id, "kind", plan.tl.Kind)
	} else {
		e.logger.Info("sequence abandoned", "run_id", plan.id, "kind", plan.tl.Kind)
	}
	e.publishEvent(Event{Type: evtType, RunID: plan.id, Kind: plan.tl.Kind})
}

// waitUntil sleeps until the target instant, checking for cancellation
// at tick granularity. Returns false if the context was cancelled.
func (e *Engine) waitUntil(ctx context.Context, target time.Time) bool {
	for {
		remaining := time.Until(target)
		if remaining <= 0 {
			return true
		}
		if remaining > e.tick {
			remaining = e.tick
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(remaining):
		}
	}
}

// playCue fires a cue asynchronously. Playback failure is logged and the
// run continues; a silent cue is better than an aborted start.
func (e *Engine) playCue(plan runPlan, n int) {
	file := plan.cues[n-1]
	if err := e.player.Play(file); err != nil {
		e.logger.Warn("cue playback failed", "run_id", plan.id, "cue", n, "file", file, "error", err)
	} else {
		e.logger.Debug("cue fired", "run_id", plan.id, "cue", n)
	}
	e.publishEvent(Event{Type: EventCue, RunID: plan.id, Kind: plan.tl.Kind, Cue: n})
}

// setRelay switches the relay and reports the transition.
func (e *Engine) setRelay(plan runPlan, active bool) {
	if active {
		e.relay.Activate()
	} else {
		e.relay.Deactivate()
	}
	e.logger.Info("relay switched", "run_id", plan.id, "active", active)
	e.publishRelayState(active)
	e.publishEvent(Event{Type: EventRelay, RunID: plan.id, Kind: plan.tl.Kind, Relay: &active})
}
