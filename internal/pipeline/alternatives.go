package pipeline

import "github.com/care-router-mcp-server/internal/domain"

type alternative struct {
	care   domain.AlternativeCare
	levels []domain.UrgencyLevel
}

var alternativeTable = []alternative{
	{
		care: domain.AlternativeCare{
			Name:         "Emergency Room",
			CostRange:    "$1,500 - $3,000",
			Availability: "24/7",
			BestFor:      "Life-threatening emergencies",
		},
		levels: []domain.UrgencyLevel{domain.EMERGENCY_AMBULANCE, domain.EMERGENCY},
	},
	{
		care: domain.AlternativeCare{
			Name:         "Urgent Care",
			CostRange:    "$150 - $300",
			Availability: "Walk-in, 8am-8pm",
			BestFor:      "Non-life-threatening urgent issues",
		},
		levels: []domain.UrgencyLevel{domain.CONSULTATION_24, domain.EMERGENCY},
	},
	{
		care: domain.AlternativeCare{
			Name:         "Telemedicine",
			CostRange:    "$40 - $90",
			Availability: "2-4 hours",
			BestFor:      "Non-urgent consultations",
		},
		levels: []domain.UrgencyLevel{domain.CONSULTATION, domain.SELF_CARE},
	},
	{
		care: domain.AlternativeCare{
			Name:         "Self-Care at Home",
			CostRange:    "$0 - $30",
			Availability: "Immediate",
			BestFor:      "Mild symptoms that can be managed at home",
		},
		levels: []domain.UrgencyLevel{domain.SELF_CARE},
	},
}

// Alternatives returns the care options recommended for the urgency level
func Alternatives(level domain.UrgencyLevel) []domain.AlternativeCare {
	out := []domain.AlternativeCare{}
	for _, alt := range AllAlternatives(level) {
		if alt.Recommended {
			out = append(out, alt)
		}
	}
	return out
}

// AllAlternatives returns the full table with Recommended set for the level
func AllAlternatives(level domain.UrgencyLevel) []domain.AlternativeCare {
	out := make([]domain.AlternativeCare, 0, len(alternativeTable))
	for _, alt := range alternativeTable {
		care := alt.care
		for _, l := range alt.levels {
			if l == level {
				care.Recommended = true
				break
			}
		}
		out = append(out, care)
	}
	return out
}
