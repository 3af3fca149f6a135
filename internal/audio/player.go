package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Logger defines the logging interface used by the Player.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config contains audio playback settings.
// These map to the audio section of config.yaml.
type Config struct {
	// Dir is the directory holding the cue assets.
	Dir string

	// Player is the external playback binary (e.g. "aplay").
	Player string

	// PlayerArgs are extra arguments passed before the asset path.
	PlayerArgs []string
}

// Player plays audio cues by spawning an external playback process.
//
// Playback is fire-and-forget: Play returns as soon as the process has
// started, never waiting for playback to finish, so cue timing is not
// coupled to asset length. A reaper goroutine collects the process exit
// status and logs failures.
//
// Thread Safety: Play is safe for concurrent use.
type Player struct {
	cfg    Config
	logger Logger
}

// New creates an audio cue player.
//
// The audio directory is created if missing so operators can drop assets
// in after first start. A missing player binary is not an error here;
// it surfaces per-Play and via HealthCheck.
//
// Parameters:
//   - cfg: Playback configuration
//   - logger: Logger instance (nil for no logging)
//
// Returns:
//   - *Player: Player ready for use
func New(cfg Config, logger Logger) *Player {
	if logger == nil {
		logger = noopLogger{}
	}

	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		logger.Warn("could not create audio directory", "dir", cfg.Dir, "error", err)
	}

	return &Player{cfg: cfg, logger: logger}
}

// Play starts playback of the named asset and returns immediately.
//
// Parameters:
//   - filename: Asset filename within the configured audio directory
//
// Returns:
//   - error: ErrAssetNotFound if the file is missing,
//     ErrPlayerUnavailable if the playback process cannot start.
//     Both are non-fatal to a running sequence.
func (p *Player) Play(filename string) error {
	path := filepath.Join(p.cfg.Dir, filename)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, path)
	}

	args := append(append([]string{}, p.cfg.PlayerArgs...), path)
	cmd := exec.Command(p.cfg.Player, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayerUnavailable, err)
	}

	p.logger.Debug("cue playback started", "file", filename, "pid", cmd.Process.Pid)

	// Reap the process; a playback failure after start is log-only.
	go func() {
		if err := cmd.Wait(); err != nil {
			p.logger.Warn("cue playback exited with error", "file", filename, "error", err)
		}
	}()

	return nil
}

// HealthCheck verifies the playback binary is resolvable and the audio
// directory exists.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (p *Player) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("audio health check: %w", ctx.Err())
	default:
	}

	if _, err := exec.LookPath(p.cfg.Player); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayerUnavailable, err)
	}
	if _, err := os.Stat(p.cfg.Dir); err != nil {
		return fmt.Errorf("audio directory: %w", err)
	}
	return nil
}
