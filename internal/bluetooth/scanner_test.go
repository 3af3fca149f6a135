package bluetooth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewScannerDefaults(t *testing.T) {
	s := NewScanner(Config{}, nil)

	if s.cfg.Binary != "bluetoothctl" {
		t.Errorf("Binary = %q, want bluetoothctl", s.cfg.Binary)
	}
	if s.cfg.Duration != 5*time.Second {
		t.Errorf("Duration = %v, want 5s", s.cfg.Duration)
	}
}

func TestScanRejectsMissingBinary(t *testing.T) {
	s := NewScanner(Config{Binary: "/nonexistent/bluetoothctl", Duration: 10 * time.Millisecond}, nil)

	if err := s.Scan(context.Background()); err == nil {
		t.Fatal("Scan() succeeded with a missing binary")
	}
	if s.Scanning() {
		t.Error("failed scan left scanning flag set")
	}
}

func TestScanWindow(t *testing.T) {
	// "cat" consumes the scripted stdin and exits when it closes, which
	// is all the window lifecycle needs.
	s := NewScanner(Config{Binary: "cat", Duration: 20 * time.Millisecond}, nil)

	if err := s.Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !s.Scanning() {
		t.Error("scan window not reported open")
	}

	if err := s.Scan(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("overlapping Scan() error = %v, want ErrScanInProgress", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Scanning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Scanning() {
		t.Fatal("scan window never closed")
	}

	// A fresh scan is allowed once the window closes.
	if err := s.Scan(context.Background()); err != nil {
		t.Errorf("Scan() after window closed error = %v", err)
	}
}

func TestAvailable(t *testing.T) {
	if !NewScanner(Config{Binary: "cat"}, nil).Available() {
		t.Error("Available() = false for a binary on PATH")
	}
	if NewScanner(Config{Binary: "/nonexistent/bluetoothctl"}, nil).Available() {
		t.Error("Available() = true for a missing binary")
	}
}
