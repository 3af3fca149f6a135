package bluetooth

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"
)

// ErrScanInProgress is returned when a scan is requested while one is
// already running.
var ErrScanInProgress = errors.New("bluetooth: scan already in progress")

// Config holds scanner settings.
type Config struct {
	// Binary is the bluetoothctl executable path.
	Binary string

	// Duration is how long discovery stays on before the scan is stopped.
	Duration time.Duration
}

// Logger defines the logging interface used by the Scanner.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Scanner drives bounded Bluetooth discovery through bluetoothctl.
//
// The controller does not consume scan results itself: a scan wakes up
// nearby audio hardware (the gate speaker sleeps between heats) and
// refreshes the adapter's device cache for pairing done out of band.
// Scan starts a background discovery window and returns immediately.
//
// At most one scan runs at a time; overlapping requests are rejected.
type Scanner struct {
	cfg    Config
	logger Logger

	mu       sync.Mutex
	scanning bool
}

// NewScanner creates a scanner.
//
// Parameters:
//   - cfg: Scanner settings; Binary defaults to "bluetoothctl" and
//     Duration to 5 seconds when unset
//   - logger: Logger instance (nil for no logging)
func NewScanner(cfg Config, logger Logger) *Scanner {
	if cfg.Binary == "" {
		cfg.Binary = "bluetoothctl"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 5 * time.Second
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Scanner{cfg: cfg, logger: logger}
}

// Available reports whether the bluetoothctl binary can be found.
func (s *Scanner) Available() bool {
	_, err := exec.LookPath(s.cfg.Binary)
	return err == nil
}

// Scanning reports whether a discovery window is currently open.
func (s *Scanner) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Scan opens a bounded discovery window in the background.
//
// The call returns as soon as the window is started; the scan itself runs
// for the configured duration and then switches discovery off. Failures
// inside the window are logged, not returned, matching fire-and-forget
// semantics: the operator only needs to know the scan was kicked off.
//
// Returns:
//   - error: ErrScanInProgress if a window is already open, or the
//     process start failure
func (s *Scanner) Scan(ctx context.Context) error {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return ErrScanInProgress
	}
	s.scanning = true
	s.mu.Unlock()

	// Child lifetime is the window plus stop/terminate slack, detached
	// from the request context so the window survives the HTTP response.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Duration+10*time.Second)

	cmd := exec.CommandContext(runCtx, s.cfg.Binary)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		s.setScanning(false)
		return err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		s.setScanning(false)
		return err
	}

	s.logger.Info("bluetooth scan started", "duration", s.cfg.Duration)

	go func() {
		defer cancel()
		defer s.setScanning(false)
		s.runWindow(cmd, stdin)
	}()

	return nil
}

// runWindow drives one discovery window on an already started bluetoothctl.
func (s *Scanner) runWindow(cmd *exec.Cmd, stdin io.WriteCloser) {
	if _, err := io.WriteString(stdin, "scan on\n"); err != nil {
		s.logger.Warn("bluetooth scan write failed", "error", err)
	}

	time.Sleep(s.cfg.Duration)

	if _, err := io.WriteString(stdin, "scan off\n"); err != nil {
		s.logger.Warn("bluetooth scan write failed", "error", err)
	}

	// Closing stdin ends the interactive session; the context timeout
	// kills the process if it lingers.
	_ = stdin.Close()
	if err := cmd.Wait(); err != nil {
		s.logger.Warn("bluetoothctl exited with error", "error", err)
	} else {
		s.logger.Info("bluetooth scan finished")
	}
}

func (s *Scanner) setScanning(v bool) {
	s.mu.Lock()
	s.scanning = v
	s.mu.Unlock()
}
