package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for settings persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Get retrieves the current settings.
	// Returns ErrNotFound if the settings row does not exist.
	Get(ctx context.Context) (*Settings, error)

	// Update replaces the settings with the given values.
	// Returns ErrInvalidSettings if validation fails.
	Update(ctx context.Context, s *Settings) error

	// SetAlignmentOffset updates only the alignment offset.
	// This is the hot path for interactive calibration from the test page.
	SetAlignmentOffset(ctx context.Context, offset float64) error
}

// SQLiteRepository implements Repository using SQLite.
// The settings live in a single row (id = 1), seeded by migrations.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed settings repository.
// The db parameter should be an open SQLite connection with migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves the current settings.
func (r *SQLiteRepository) Get(ctx context.Context) (*Settings, error) {
	query := `
		SELECT default_delay1, default_delay2, default_gate_delay,
			min_total_time, max_total_time, gate_open_duration,
			alignment_offset, audio_volume,
			cue1_file, cue2_file, cue3_file,
			auto_refresh_ms, countdown_update_ms, updated_at
		FROM settings
		WHERE id = 1`

	var s Settings
	var updatedAt string
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.DefaultDelay1, &s.DefaultDelay2, &s.DefaultGateDelay,
		&s.MinTotalTime, &s.MaxTotalTime, &s.GateOpenDuration,
		&s.AlignmentOffset, &s.AudioVolume,
		&s.Cue1File, &s.Cue2File, &s.Cue3File,
		&s.AutoRefreshMS, &s.CountdownUpdateMS, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying settings: %w", err)
	}

	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
	return &s, nil
}

// Update replaces the settings with the given values.
func (r *SQLiteRepository) Update(ctx context.Context, s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE settings SET
			default_delay1 = ?, default_delay2 = ?, default_gate_delay = ?,
			min_total_time = ?, max_total_time = ?, gate_open_duration = ?,
			alignment_offset = ?, audio_volume = ?,
			cue1_file = ?, cue2_file = ?, cue3_file = ?,
			auto_refresh_ms = ?, countdown_update_ms = ?,
			updated_at = ?
		WHERE id = 1`

	result, err := r.db.ExecContext(ctx, query,
		s.DefaultDelay1, s.DefaultDelay2, s.DefaultGateDelay,
		s.MinTotalTime, s.MaxTotalTime, s.GateOpenDuration,
		s.AlignmentOffset, s.AudioVolume,
		s.Cue1File, s.Cue2File, s.Cue3File,
		s.AutoRefreshMS, s.CountdownUpdateMS,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAlignmentOffset updates only the alignment offset.
func (r *SQLiteRepository) SetAlignmentOffset(ctx context.Context, offset float64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE settings SET alignment_offset = ?, updated_at = ? WHERE id = 1",
		offset,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("updating alignment offset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
