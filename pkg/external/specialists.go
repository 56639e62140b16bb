package external

import "github.com/care-router-mcp-server/internal/domain"

type specialistInfo struct {
	name     string
	category string
}

// knownSpecialists maps decision-service specialist ids to display names and categories
var knownSpecialists = map[string]specialistInfo{
	"sp_1":  {"General Practitioner", "Primary Care"},
	"sp_2":  {"Cardiologist", "Cardiology"},
	"sp_3":  {"Dermatologist", "Dermatology"},
	"sp_5":  {"Orthopedist", "Orthopedics"},
	"sp_11": {"Pediatrician", "Pediatrics"},
	"sp_15": {"Psychiatrist", "Psychiatry"},
	"sp_17": {"Neurologist", "Neurology"},
}

// SpecialistByID resolves a specialist id, falling back to a generic specialist
func SpecialistByID(id string) domain.SpecialistRecommendation {
	info, ok := knownSpecialists[id]
	if !ok {
		return domain.SpecialistRecommendation{ID: id, Name: "Specialist", Category: "General"}
	}
	return domain.SpecialistRecommendation{ID: id, Name: info.name, Category: info.category}
}

func specialistFromWire(w *wireSpecialist) *domain.SpecialistRecommendation {
	if w == nil {
		return nil
	}
	rec := SpecialistByID(w.ID)
	if w.Name != "" {
		rec.Name = w.Name
	}
	return &rec
}
