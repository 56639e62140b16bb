package directory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday morning, before any clinic opens
var monday = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func specialtyPtr(s domain.Specialty) *domain.Specialty { return &s }

func TestEstimatedCost(t *testing.T) {
	tests := []struct {
		kind      domain.AppointmentKind
		specialty domain.Specialty
		expected  int
	}{
		{domain.KindNewPatient, domain.SpecialtyPrimaryCare, 250},
		{domain.KindNewPatient, domain.SpecialtyCardiology, 375},
		{domain.KindFollowUp, domain.SpecialtyDermatology, 180},
		{domain.KindFollowUp, domain.SpecialtyOrthopedics, 210},
		{domain.KindUrgentCare, domain.SpecialtyNeurology, 320},
		{domain.KindAnnualPhysical, domain.SpecialtyPsychiatry, 260},
		{domain.KindProcedure, domain.SpecialtyPediatrics, 450},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.kind, tt.specialty), func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimatedCost(tt.kind, tt.specialty))
		})
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	a := NewSimulator(42, fixedClock(monday), nil).Generate(domain.SlotQuery{DaysAhead: 7})
	b := NewSimulator(42, fixedClock(monday), nil).Generate(domain.SlotQuery{DaysAhead: 7})
	c := NewSimulator(7, fixedClock(monday), nil).Generate(domain.SlotQuery{DaysAhead: 7})

	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSimulator_SlotShape(t *testing.T) {
	sim := NewSimulator(1, fixedClock(monday), nil)
	slots := sim.Generate(domain.SlotQuery{DaysAhead: 14})
	require.NotEmpty(t, slots)

	perProviderDay := map[string]int{}
	for i, slot := range slots {
		if i > 0 {
			assert.False(t, slot.StartTime.Before(slots[i-1].StartTime), "sorted by start time")
		}
		assert.False(t, slot.StartTime.Before(monday))
		assert.NotEqual(t, time.Saturday, slot.StartTime.Weekday())
		assert.NotEqual(t, time.Sunday, slot.StartTime.Weekday())

		hour := slot.StartTime.Hour()
		assert.True(t, hour >= 8 && hour <= 19, "hour %d", hour)
		assert.Contains(t, []int{0, 15, 30, 45}, slot.StartTime.Minute())

		assert.Equal(t, fmt.Sprintf("slot_%s_%s", slot.Provider.ID, slot.StartTime.Format("200601021504")), slot.ID)
		assert.Equal(t, kindTable[slot.Kind].duration, slot.DurationMinutes)
		assert.Equal(t, EstimatedCost(slot.Kind, slot.Provider.Specialty), slot.EstimatedCost)

		perProviderDay[slot.Provider.ID+slot.StartTime.Format("20060102")]++
	}

	for key, n := range perProviderDay {
		assert.LessOrEqual(t, n, 4, key)
	}
}

func TestSimulator_AvailabilityRatio(t *testing.T) {
	sim := NewSimulator(99, fixedClock(monday), nil)
	slots := sim.Generate(domain.SlotQuery{DaysAhead: 60})

	available := 0
	for _, s := range slots {
		if s.IsAvailable {
			available++
		}
	}
	ratio := float64(available) / float64(len(slots))
	assert.InDelta(t, 0.8, ratio, 0.1)
}

func TestSimulator_DropsPastSlots(t *testing.T) {
	afternoon := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	slots := NewSimulator(3, fixedClock(afternoon), nil).Generate(domain.SlotQuery{DaysAhead: 1})
	for _, s := range slots {
		assert.False(t, s.StartTime.Before(afternoon))
	}
}

func TestSimulator_WeekendOnlyWindowIsEmpty(t *testing.T) {
	saturday := time.Date(2025, 3, 8, 6, 0, 0, 0, time.UTC)
	slots := NewSimulator(3, fixedClock(saturday), nil).Generate(domain.SlotQuery{DaysAhead: 2})
	assert.Empty(t, slots)
}

func TestSimulator_FiltersAreConsistent(t *testing.T) {
	sim := NewSimulator(5, fixedClock(monday), nil)
	all := sim.Generate(domain.SlotQuery{DaysAhead: 7})
	cardio := sim.Generate(domain.SlotQuery{DaysAhead: 7, Specialty: specialtyPtr(domain.SpecialtyCardiology)})

	require.NotEmpty(t, cardio)
	var expected []domain.AppointmentSlot
	for _, s := range all {
		if s.Provider.Specialty == domain.SpecialtyCardiology {
			expected = append(expected, s)
		}
	}
	assert.Equal(t, expected, cardio)

	peds := sim.Generate(domain.SlotQuery{DaysAhead: 7, Specialty: specialtyPtr(domain.SpecialtyPediatrics)})
	assert.Empty(t, peds, "no pediatrician on the roster")
}

func TestSimulator_KindFilter(t *testing.T) {
	kind := domain.KindFollowUp
	slots := NewSimulator(5, fixedClock(monday), nil).Generate(domain.SlotQuery{DaysAhead: 5, Kind: &kind})
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.Equal(t, domain.KindFollowUp, s.Kind)
		assert.Equal(t, 30, s.DurationMinutes)
	}
}

func TestSimulator_QueryUrgentSlots(t *testing.T) {
	sim := NewSimulator(11, fixedClock(monday), nil)
	slots, err := sim.QueryUrgentSlots(context.Background(), specialtyPtr(domain.SpecialtyPrimaryCare))
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	for _, s := range slots {
		assert.True(t, s.IsAvailable)
		assert.Equal(t, domain.KindUrgentCare, s.Kind)
		assert.Equal(t, domain.SpecialtyPrimaryCare, s.Provider.Specialty)
		assert.True(t, s.StartTime.Before(monday.Add(48*time.Hour)))
	}

	all, err := sim.QueryUrgentSlots(context.Background(), nil)
	require.NoError(t, err)
	assert.Greater(t, len(all), len(slots))
}

func TestSimulator_QueryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulator(1, nil, nil).QuerySlots(ctx, domain.SlotQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}
