// Package directory supplies provider schedules: a deterministic synthetic
// generator and SQL-backed stores seeded from it.
package directory

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	// UrgentWindowDays is the horizon searched for urgent slots
	UrgentWindowDays = 2
	defaultDaysAhead = 14
	availableRatio   = 0.8
)

// Simulator generates provider schedules. Each provider-day draws from its own
// source derived from the seed, so the same clock and seed always produce the same
// schedule whatever filters are applied.
type Simulator struct {
	providers []domain.Provider
	seed      int64
	now       func() time.Time
	logger    *logrus.Logger
}

// NewSimulator creates a simulator over the default roster. clock may be nil.
func NewSimulator(seed int64, clock func() time.Time, logger *logrus.Logger) *Simulator {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Simulator{
		providers: Providers(),
		seed:      seed,
		now:       clock,
		logger:    logger,
	}
}

// Providers returns the simulator's roster
func (s *Simulator) Providers() []domain.Provider {
	out := make([]domain.Provider, len(s.providers))
	copy(out, s.providers)
	return out
}

// Generate returns every future slot in the window, booked ones included
func (s *Simulator) Generate(query domain.SlotQuery) []domain.AppointmentSlot {
	days := query.DaysAhead
	if days <= 0 {
		days = defaultDaysAhead
	}
	now := s.now()

	var slots []domain.AppointmentSlot
	for _, p := range s.providers {
		if query.Specialty != nil && p.Specialty != *query.Specialty {
			continue
		}
		for offset := 0; offset < days; offset++ {
			day := now.AddDate(0, 0, offset)
			if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				continue
			}
			for _, slot := range s.providerDay(p, day, query.Kind) {
				if slot.StartTime.Before(now) {
					continue
				}
				slots = append(slots, slot)
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
	return slots
}

// QuerySlots returns the slots matching the query
func (s *Simulator) QuerySlots(ctx context.Context, query domain.SlotQuery) ([]domain.AppointmentSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slots := s.Generate(query)
	s.logger.WithFields(logrus.Fields{
		"days_ahead": query.DaysAhead,
		"slots":      len(slots),
	}).Debug("Generated appointment slots")
	return slots, nil
}

// QueryUrgentSlots returns available Urgent Care slots in the next two days
func (s *Simulator) QueryUrgentSlots(ctx context.Context, specialty *domain.Specialty) ([]domain.AppointmentSlot, error) {
	kind := domain.KindUrgentCare
	slots, err := s.QuerySlots(ctx, domain.SlotQuery{Specialty: specialty, DaysAhead: UrgentWindowDays, Kind: &kind})
	if err != nil {
		return nil, err
	}
	return availableOnly(slots), nil
}

// providerDay generates the 2-4 slots a provider offers on one day
func (s *Simulator) providerDay(p domain.Provider, day time.Time, kind *domain.AppointmentKind) []domain.AppointmentSlot {
	rng := rand.New(rand.NewSource(s.seed ^ dayKey(p.ID, day)))
	kinds := domain.AllAppointmentKinds()

	count := 2 + rng.Intn(3)
	seen := make(map[string]bool, count)
	slots := make([]domain.AppointmentSlot, 0, count)

	for i := 0; i < count; i++ {
		band := hourBands[rng.Intn(len(hourBands))]
		hour := band[0] + rng.Intn(band[1]-band[0]+1)
		minute := slotMinutes[rng.Intn(len(slotMinutes))]
		drawn := kinds[rng.Intn(len(kinds))]
		available := rng.Float64() < availableRatio

		k := drawn
		if kind != nil {
			k = *kind
		}

		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
		id := fmt.Sprintf("slot_%s_%s", p.ID, start.Format("200601021504"))
		if seen[id] {
			continue
		}
		seen[id] = true

		slots = append(slots, domain.AppointmentSlot{
			ID:              id,
			Provider:        p,
			StartTime:       start,
			Kind:            k,
			DurationMinutes: kindTable[k].duration,
			EstimatedCost:   EstimatedCost(k, p.Specialty),
			IsAvailable:     available,
		})
	}
	return slots
}

func dayKey(providerID string, day time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(providerID))
	h.Write([]byte(day.Format("20060102")))
	return int64(h.Sum64())
}

func availableOnly(slots []domain.AppointmentSlot) []domain.AppointmentSlot {
	out := make([]domain.AppointmentSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.IsAvailable {
			out = append(out, slot)
		}
	}
	return out
}
