package pipeline

import (
	"strings"

	"github.com/care-router-mcp-server/internal/domain"
)

// specialtySynonyms maps lower-cased specialist names to directory specialties.
// Only exact synonyms are listed; anything else is routed to primary care.
var specialtySynonyms = map[string]domain.Specialty{
	"general practitioner": domain.SpecialtyPrimaryCare,
	"primary care":         domain.SpecialtyPrimaryCare,
	"cardiologist":         domain.SpecialtyCardiology,
	"cardiology":           domain.SpecialtyCardiology,
	"dermatologist":        domain.SpecialtyDermatology,
	"orthopedist":          domain.SpecialtyOrthopedics,
	"orthopedics":          domain.SpecialtyOrthopedics,
	"neurologist":          domain.SpecialtyNeurology,
	"psychiatrist":         domain.SpecialtyPsychiatry,
	"pediatrician":         domain.SpecialtyPediatrics,
}

// NormalizeSpecialty maps a specialist name to a directory specialty
func NormalizeSpecialty(name string) domain.Specialty {
	if s, ok := specialtySynonyms[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s
	}
	return domain.GeneralistSpecialty
}
