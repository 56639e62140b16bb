package directory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on an embedded SQLite database
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *logrus.Logger
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath
func NewSQLiteStore(dbPath string, clock func() time.Time, logger *logrus.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return newSQLiteStore(db, clock, logger), nil
}

func newSQLiteStore(db *sql.DB, clock func() time.Time, logger *logrus.Logger) *SQLiteStore {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &SQLiteStore{db: db, now: clock, logger: logger}
}

// createSchema creates the directory tables and indexes
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS providers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		specialty TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		in_network INTEGER NOT NULL DEFAULT 1,
		rating REAL NOT NULL DEFAULT 0,
		years_experience INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS slots (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL REFERENCES providers(id),
		start_time INTEGER NOT NULL,
		kind TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		estimated_cost INTEGER NOT NULL,
		is_available INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_providers_specialty ON providers(specialty);
	CREATE INDEX IF NOT EXISTS idx_slots_start_time ON slots(start_time);
	CREATE INDEX IF NOT EXISTS idx_slots_provider ON slots(provider_id);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveProviders upserts the providers
func (s *SQLiteStore) SaveProviders(ctx context.Context, providers []domain.Provider) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range providers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO providers (id, name, specialty, location, in_network, rating, years_experience)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				specialty = excluded.specialty,
				location = excluded.location,
				in_network = excluded.in_network,
				rating = excluded.rating,
				years_experience = excluded.years_experience
		`, p.ID, p.Name, string(p.Specialty), p.Location, p.InNetwork, p.Rating, p.YearsExperience)
		if err != nil {
			return fmt.Errorf("failed to save provider %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// SaveSlots upserts the slots; their providers must already be saved
func (s *SQLiteStore) SaveSlots(ctx context.Context, slots []domain.AppointmentSlot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, slot := range slots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO slots (id, provider_id, start_time, kind, duration_minutes, estimated_cost, is_available)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				start_time = excluded.start_time,
				kind = excluded.kind,
				duration_minutes = excluded.duration_minutes,
				estimated_cost = excluded.estimated_cost,
				is_available = excluded.is_available
		`, slot.ID, slot.Provider.ID, slot.StartTime.Unix(), string(slot.Kind),
			slot.DurationMinutes, slot.EstimatedCost, slot.IsAvailable)
		if err != nil {
			return fmt.Errorf("failed to save slot %s: %w", slot.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit slots: %w", err)
	}
	s.logger.WithField("slots", len(slots)).Debug("Saved appointment slots")
	return nil
}

// QuerySlots returns the slots matching the query
func (s *SQLiteStore) QuerySlots(ctx context.Context, query domain.SlotQuery) ([]domain.AppointmentSlot, error) {
	return s.query(ctx, newSlotFilter(s.now(), query))
}

// QueryUrgentSlots returns available Urgent Care slots in the next two days
func (s *SQLiteStore) QueryUrgentSlots(ctx context.Context, specialty *domain.Specialty) ([]domain.AppointmentSlot, error) {
	return s.query(ctx, urgentFilter(s.now(), specialty))
}

func (s *SQLiteStore) query(ctx context.Context, f slotFilter) ([]domain.AppointmentSlot, error) {
	query, args := f.build(
		func(int) string { return "?" },
		func(t time.Time) any { return t.Unix() },
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.AppointmentSlot
	for rows.Next() {
		slot, err := scanSQLiteSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slots: %w", err)
	}
	return slots, nil
}

func scanSQLiteSlot(s scanner) (domain.AppointmentSlot, error) {
	var slot domain.AppointmentSlot
	var start int64
	var kind, specialty string

	err := s.Scan(
		&slot.ID, &start, &kind, &slot.DurationMinutes, &slot.EstimatedCost, &slot.IsAvailable,
		&slot.Provider.ID, &slot.Provider.Name, &specialty, &slot.Provider.Location,
		&slot.Provider.InNetwork, &slot.Provider.Rating, &slot.Provider.YearsExperience,
	)
	if err != nil {
		return slot, err
	}

	slot.StartTime = time.Unix(start, 0).UTC()
	slot.Kind = domain.AppointmentKind(kind)
	slot.Provider.Specialty = domain.Specialty(specialty)
	return slot, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
