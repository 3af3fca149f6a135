package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestPlayer(t *testing.T, player string) (*Player, string) {
	t.Helper()
	dir := t.TempDir()
	p := New(Config{Dir: dir, Player: player}, nil)
	return p, dir
}

func writeAsset(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("RIFF"), 0600); err != nil {
		t.Fatalf("writing test asset: %v", err)
	}
}

func TestPlay_MissingAsset(t *testing.T) {
	p, _ := newTestPlayer(t, "true")

	err := p.Play("missing.wav")
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Play() error = %v, want ErrAssetNotFound", err)
	}
}

func TestPlay_StartsProcess(t *testing.T) {
	// "true" exits immediately; Play only cares that the process starts.
	p, dir := newTestPlayer(t, "true")
	writeAsset(t, dir, "beep1.wav")

	if err := p.Play("beep1.wav"); err != nil {
		t.Errorf("Play() error = %v", err)
	}
}

func TestPlay_PlayerUnavailable(t *testing.T) {
	p, dir := newTestPlayer(t, "/nonexistent/player-binary")
	writeAsset(t, dir, "beep1.wav")

	err := p.Play("beep1.wav")
	if !errors.Is(err, ErrPlayerUnavailable) {
		t.Errorf("Play() error = %v, want ErrPlayerUnavailable", err)
	}
}

func TestNew_CreatesAudioDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	New(Config{Dir: dir, Player: "true"}, nil)

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("audio directory not created: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		p, _ := newTestPlayer(t, "true")
		if err := p.HealthCheck(context.Background()); err != nil {
			t.Errorf("HealthCheck() error = %v", err)
		}
	})

	t.Run("missing player", func(t *testing.T) {
		p, _ := newTestPlayer(t, "no-such-player-binary")
		if err := p.HealthCheck(context.Background()); !errors.Is(err, ErrPlayerUnavailable) {
			t.Errorf("HealthCheck() error = %v, want ErrPlayerUnavailable", err)
		}
	})
}
