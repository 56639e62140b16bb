package directory

import "github.com/care-router-mcp-server/internal/domain"

// defaultProviders is the clinic roster served by the simulator
var defaultProviders = []domain.Provider{
	{ID: "prov_001", Name: "Dr. Emily Rodriguez", Specialty: domain.SpecialtyPrimaryCare, Location: "Main Campus - Building A", InNetwork: true, Rating: 4.8, YearsExperience: 15},
	{ID: "prov_002", Name: "Dr. Michael Chen", Specialty: domain.SpecialtyPrimaryCare, Location: "North Clinic", InNetwork: true, Rating: 4.6, YearsExperience: 8},
	{ID: "prov_003", Name: "Dr. Sarah Chen", Specialty: domain.SpecialtyCardiology, Location: "Main Campus Cardiology", InNetwork: true, Rating: 4.9, YearsExperience: 20},
	{ID: "prov_004", Name: "Dr. James Wilson", Specialty: domain.SpecialtyCardiology, Location: "Heart Center", InNetwork: true, Rating: 4.7, YearsExperience: 12},
	{ID: "prov_005", Name: "Dr. Lisa Anderson", Specialty: domain.SpecialtyDermatology, Location: "Dermatology Clinic", InNetwork: true, Rating: 4.8, YearsExperience: 18},
	{ID: "prov_006", Name: "Dr. Robert Martinez", Specialty: domain.SpecialtyOrthopedics, Location: "Sports Medicine Center", InNetwork: true, Rating: 4.7, YearsExperience: 15},
	{ID: "prov_007", Name: "Dr. Patricia Kumar", Specialty: domain.SpecialtyNeurology, Location: "Neurology Center", InNetwork: true, Rating: 4.9, YearsExperience: 22},
	{ID: "prov_008", Name: "Dr. David Thompson", Specialty: domain.SpecialtyPsychiatry, Location: "Behavioral Health", InNetwork: true, Rating: 4.6, YearsExperience: 10},
}

type kindTerms struct {
	duration int
	baseCost int
}

var kindTable = map[domain.AppointmentKind]kindTerms{
	domain.KindNewPatient:     {duration: 60, baseCost: 250},
	domain.KindFollowUp:       {duration: 30, baseCost: 150},
	domain.KindUrgentCare:     {duration: 20, baseCost: 200},
	domain.KindAnnualPhysical: {duration: 45, baseCost: 200},
	domain.KindProcedure:      {duration: 90, baseCost: 500},
}

// costPercent scales the base cost per specialty, in percent
var costPercent = map[domain.Specialty]int{
	domain.SpecialtyPrimaryCare: 100,
	domain.SpecialtyCardiology:  150,
	domain.SpecialtyDermatology: 120,
	domain.SpecialtyOrthopedics: 140,
	domain.SpecialtyNeurology:   160,
	domain.SpecialtyPsychiatry:  130,
	domain.SpecialtyPediatrics:  90,
}

// hourBands are the inclusive start-hour ranges of the morning, afternoon and evening clinics
var hourBands = [][2]int{{8, 11}, {12, 16}, {17, 19}}

var slotMinutes = []int{0, 15, 30, 45}

// EstimatedCost returns the cost of a visit kind with a provider of the given specialty
func EstimatedCost(kind domain.AppointmentKind, specialty domain.Specialty) int {
	pct, ok := costPercent[specialty]
	if !ok {
		pct = 100
	}
	return kindTable[kind].baseCost * pct / 100
}

// Providers returns a copy of the roster
func Providers() []domain.Provider {
	out := make([]domain.Provider, len(defaultProviders))
	copy(out, defaultProviders)
	return out
}
