package relay

import (
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// Logger defines the logging interface used by the Driver.
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

// Config contains the GPIO binding for the gate-release relay.
// These map to the relay section of config.yaml.
type Config struct {
	// Chip is the GPIO character device name (e.g. "gpiochip0").
	Chip string

	// Line is the line offset on the chip.
	Line int

	// ActiveHigh selects the electrical polarity of "relay active".
	ActiveHigh bool
}

// output is the hardware surface the driver needs from a GPIO line.
// Satisfied by *gpiocdev.Line; faked in tests.
type output interface {
	SetValue(value int) error
	Close() error
}

// Driver controls the gate-release relay.
//
// It binds a GPIO line when the configured chip is present and falls back
// to a pure in-memory simulated output otherwise, so the sequence engine
// and the tests behave identically on development machines.
//
// The logical active state is authoritative: a hardware write failure is
// logged but the logical state still updates, keeping status reporting
// and simulation consistent even if physical actuation failed.
//
// Thread Safety: all methods are safe for concurrent use.
type Driver struct {
	mu         sync.Mutex
	line       output // nil in simulation mode
	activeHigh bool
	active     bool
	logger     Logger
}

// New creates a relay driver bound to the configured GPIO line.
//
// If the chip cannot be opened (no hardware, insufficient permissions)
// the driver starts in simulation mode; this is logged, not an error.
// The line is driven to its inactive level on a successful bind.
//
// Parameters:
//   - cfg: GPIO binding configuration
//   - logger: Logger instance (nil for no logging)
//
// Returns:
//   - *Driver: Driver ready for use, hardware-bound or simulated
func New(cfg Config, logger Logger) *Driver {
	if logger == nil {
		logger = noopLogger{}
	}

	d := &Driver{
		activeHigh: cfg.ActiveHigh,
		logger:     logger,
	}

	line, err := gpiocdev.RequestLine(cfg.Chip, cfg.Line,
		gpiocdev.AsOutput(d.level(false)),
		gpiocdev.WithConsumer("lugerelay"),
	)
	if err != nil {
		logger.Warn("GPIO unavailable, relay running in simulation mode",
			"chip", cfg.Chip,
			"line", cfg.Line,
			"error", err,
		)
		return d
	}

	d.line = line
	logger.Info("relay bound to GPIO line",
		"chip", cfg.Chip,
		"line", cfg.Line,
		"active_high", cfg.ActiveHigh,
	)
	return d
}

// Activate energises the relay, releasing the gate.
// Activating an already-active relay is a no-op.
func (d *Driver) Activate() {
	d.set(true)
}

// Deactivate de-energises the relay. Safe to call redundantly and on a
// relay that was never activated.
func (d *Driver) Deactivate() {
	d.set(false)
}

// IsActive reports the logical relay state.
func (d *Driver) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Available reports whether a physical GPIO line is bound.
// False means the relay is simulated.
func (d *Driver) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.line != nil
}

// Close releases the GPIO line, driving it inactive first.
func (d *Driver) Close() error {
	d.Deactivate()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.line == nil {
		return nil
	}
	err := d.line.Close()
	d.line = nil
	return err
}

// set updates the logical state and drives the hardware line if bound.
func (d *Driver) set(active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == active {
		return
	}
	d.active = active

	if d.line == nil {
		d.logger.Debug("relay simulated", "active", active)
		return
	}

	if err := d.line.SetValue(d.level(active)); err != nil {
		// Logical state stays updated so the sequence and status
		// reporting remain consistent; the fault is an operator concern.
		d.logger.Error("relay hardware write failed", "active", active, "error", err)
		return
	}
	d.logger.Debug("relay switched", "active", active)
}

// level maps a logical state to the electrical line value.
func (d *Driver) level(active bool) int {
	if active == d.activeHigh {
		return 1
	}
	return 0
}
