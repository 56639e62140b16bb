// Package scoring ranks appointment slots against a triage outcome. Every function
// here is pure: the current time is always passed in by the caller.
package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
)

// Component weights. They sum to exactly 1.0 so a total built from components in
// [0,1] stays in [0,1].
const (
	UrgencyWeight      = 0.5
	SpecialistWeight   = 0.3
	AvailabilityWeight = 0.2
)

// availabilityHorizon is the routine-care window after which availability decays
const availabilityHorizon = 14 * 24.0

// Score computes the fit of one slot for the given urgency level and recommended
// specialist category.
func Score(level domain.UrgencyLevel, specialist string, slot domain.AppointmentSlot, now time.Time) domain.AppointmentScore {
	hours := slot.StartTime.Sub(now).Hours()

	urgency := UrgencyComponent(level, hours)
	spec := SpecialistComponent(specialist, slot.Provider.Specialty)
	availability := AvailabilityComponent(level, hours)

	total := UrgencyWeight*urgency + SpecialistWeight*spec + AvailabilityWeight*availability

	return domain.AppointmentScore{
		Slot:                  slot,
		TotalScore:            clamp(total, 0, 1),
		UrgencyComponent:      urgency,
		SpecialistComponent:   spec,
		AvailabilityComponent: availability,
		Reasoning:             Reasoning(level, specialist, hours, spec, availability),
	}
}

// Rank scores the available candidates, sorts them by total score (highest first)
// and keeps at most maxResults. Ties keep their input order, so callers that pass
// slots sorted by start time get the earliest slot first. A maxResults of zero or
// less returns every scored slot.
func Rank(level domain.UrgencyLevel, specialist string, candidates []domain.AppointmentSlot, maxResults int, now time.Time) []domain.AppointmentScore {
	scores := make([]domain.AppointmentScore, 0, len(candidates))
	for _, slot := range candidates {
		if !slot.IsAvailable {
			continue
		}
		scores = append(scores, Score(level, specialist, slot, now))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	if maxResults > 0 && len(scores) > maxResults {
		scores = scores[:maxResults]
	}
	return scores
}

// UrgencyComponent is a step function of the time until the appointment
func UrgencyComponent(level domain.UrgencyLevel, hoursUntil float64) float64 {
	days := daysUntil(hoursUntil)

	switch level {
	case domain.EMERGENCY_AMBULANCE:
		switch {
		case hoursUntil < 1:
			return 1.0
		case days == 0:
			return 0.7
		case days <= 2:
			return 0.3
		default:
			return 0.1
		}
	case domain.EMERGENCY:
		switch {
		case hoursUntil < 24:
			return 1.0
		case hoursUntil < 48:
			return 0.7
		case days <= 7:
			return 0.4
		default:
			return 0.2
		}
	case domain.CONSULTATION_24:
		switch {
		case hoursUntil < 24:
			return 1.0
		case hoursUntil < 48:
			return 0.8
		case days <= 7:
			return 0.5
		default:
			return 0.3
		}
	case domain.CONSULTATION:
		switch {
		case days <= 7:
			return 1.0
		case days <= 14:
			return 0.8
		default:
			return 0.6
		}
	case domain.SELF_CARE:
		if days <= 30 {
			return 1.0
		}
		return 0.8
	default:
		return 0
	}
}

// SpecialistComponent compares the recommended category with the provider's
func SpecialistComponent(recommended string, provider domain.Specialty) float64 {
	rec := strings.ToLower(strings.TrimSpace(recommended))
	prov := strings.ToLower(string(provider))

	if rec != "" && prov != "" {
		if rec == prov {
			return 1.0
		}
		if strings.Contains(prov, rec) || strings.Contains(rec, prov) {
			return 0.8
		}
	}
	if provider == domain.GeneralistSpecialty {
		return 0.7
	}
	return 0.3
}

// AvailabilityComponent rewards sooner slots sharply for emergencies and mildly otherwise
func AvailabilityComponent(level domain.UrgencyLevel, hoursUntil float64) float64 {
	if level.IsEmergency() {
		switch {
		case hoursUntil < 2:
			return 1.0
		case hoursUntil < 6:
			return 0.8
		case hoursUntil < 24:
			return 0.5
		default:
			return 0.2
		}
	}

	overdue := math.Max(0, hoursUntil-availabilityHorizon)
	return clamp(1.0-overdue/availabilityHorizon, 0.7, 1.0)
}

func daysUntil(hours float64) int {
	return int(math.Floor(hours / 24))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
