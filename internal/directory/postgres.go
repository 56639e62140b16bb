package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/care-router-mcp-server/internal/database"
	"github.com/care-router-mcp-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// PostgresStore implements Store on the shared pgx pool. The schema is created by
// the migrations in migrations/.
type PostgresStore struct {
	db     *database.DB
	now    func() time.Time
	logger *logrus.Logger
}

// NewPostgresStore creates a store over an established connection pool
func NewPostgresStore(db *database.DB, clock func() time.Time, logger *logrus.Logger) (*PostgresStore, error) {
	if db == nil || db.Pool == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PostgresStore{db: db, now: clock, logger: logger}, nil
}

// SaveProviders upserts the providers in one batch
func (s *PostgresStore) SaveProviders(ctx context.Context, providers []domain.Provider) error {
	batch := &pgx.Batch{}
	for _, p := range providers {
		batch.Queue(`
			INSERT INTO providers (id, name, specialty, location, in_network, rating, years_experience)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				specialty = EXCLUDED.specialty,
				location = EXCLUDED.location,
				in_network = EXCLUDED.in_network,
				rating = EXCLUDED.rating,
				years_experience = EXCLUDED.years_experience`,
			p.ID, p.Name, string(p.Specialty), p.Location, p.InNetwork, p.Rating, p.YearsExperience)
	}
	return s.sendBatch(ctx, batch, "providers")
}

// SaveSlots upserts the slots in one batch
func (s *PostgresStore) SaveSlots(ctx context.Context, slots []domain.AppointmentSlot) error {
	batch := &pgx.Batch{}
	for _, slot := range slots {
		batch.Queue(`
			INSERT INTO slots (id, provider_id, start_time, kind, duration_minutes, estimated_cost, is_available)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				start_time = EXCLUDED.start_time,
				kind = EXCLUDED.kind,
				duration_minutes = EXCLUDED.duration_minutes,
				estimated_cost = EXCLUDED.estimated_cost,
				is_available = EXCLUDED.is_available`,
			slot.ID, slot.Provider.ID, slot.StartTime, string(slot.Kind),
			slot.DurationMinutes, slot.EstimatedCost, slot.IsAvailable)
	}
	return s.sendBatch(ctx, batch, "slots")
}

func (s *PostgresStore) sendBatch(ctx context.Context, batch *pgx.Batch, table string) error {
	if batch.Len() == 0 {
		return nil
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("saving %s: %w", table, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("saving %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing %s: %w", table, err)
	}
	s.logger.WithFields(logrus.Fields{"table": table, "rows": batch.Len()}).Debug("Saved directory rows")
	return nil
}

// QuerySlots returns the slots matching the query
func (s *PostgresStore) QuerySlots(ctx context.Context, query domain.SlotQuery) ([]domain.AppointmentSlot, error) {
	return s.query(ctx, newSlotFilter(s.now(), query))
}

// QueryUrgentSlots returns available Urgent Care slots in the next two days
func (s *PostgresStore) QueryUrgentSlots(ctx context.Context, specialty *domain.Specialty) ([]domain.AppointmentSlot, error) {
	return s.query(ctx, urgentFilter(s.now(), specialty))
}

func (s *PostgresStore) query(ctx context.Context, f slotFilter) ([]domain.AppointmentSlot, error) {
	query, args := f.build(
		func(n int) string { return fmt.Sprintf("$%d", n) },
		func(t time.Time) any { return t },
	)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.AppointmentSlot
	for rows.Next() {
		slot, err := scanPostgresSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slots: %w", err)
	}
	return slots, nil
}

func scanPostgresSlot(s scanner) (domain.AppointmentSlot, error) {
	var slot domain.AppointmentSlot
	var kind, specialty string

	err := s.Scan(
		&slot.ID, &slot.StartTime, &kind, &slot.DurationMinutes, &slot.EstimatedCost, &slot.IsAvailable,
		&slot.Provider.ID, &slot.Provider.Name, &specialty, &slot.Provider.Location,
		&slot.Provider.InNetwork, &slot.Provider.Rating, &slot.Provider.YearsExperience,
	)
	if err != nil {
		return slot, err
	}

	slot.StartTime = slot.StartTime.UTC()
	slot.Kind = domain.AppointmentKind(kind)
	slot.Provider.Specialty = domain.Specialty(specialty)
	return slot, nil
}

// Close is a no-op; the pool is owned by the caller
func (s *PostgresStore) Close() error {
	return nil
}
