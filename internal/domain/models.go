package domain

import (
	"fmt"
	"strings"
	"time"
)

// Demographics are sent with every decision-service call
type Demographics struct {
	Age int `json:"age"`
	Sex Sex `json:"sex"`
}

// Validate checks the demographics the decision service accepts
func (d Demographics) Validate() error {
	if d.Age < 0 || d.Age > 130 {
		return NewValidationError("age", "age must be between 0 and 130", d.Age)
	}
	if !d.Sex.IsValid() {
		return NewValidationError("sex", "sex must be male or female", d.Sex)
	}
	return nil
}

// EvidenceItem is one clinical finding with its presence and provenance
type EvidenceItem struct {
	ID       string         `json:"id"`
	Presence Presence       `json:"presence"`
	Source   EvidenceSource `json:"source"`
}

// Validate checks that the item is complete
func (e EvidenceItem) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return NewValidationError("id", "evidence id is required", e.ID)
	}
	if !e.Presence.IsValid() {
		return NewValidationError("presence", "presence must be present, absent or unknown", e.Presence)
	}
	if !e.Source.IsValid() {
		return NewValidationError("source", "unknown evidence source", e.Source)
	}
	return nil
}

// Finding is a symptom recognised in free text
type Finding struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CommonName string `json:"common_name"`
}

// Suggestion is a candidate finding proposed for manual adjudication
type Suggestion struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CommonName string `json:"common_name,omitempty"`
}

// QuestionItem is one answerable entry of a diagnostic question
type QuestionItem struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Choices []string `json:"choices,omitempty"`
}

// DiagnosticQuestion is produced by the decision service during the interview loop
type DiagnosticQuestion struct {
	Type  QuestionType   `json:"type"`
	Text  string         `json:"text"`
	Items []QuestionItem `json:"items"`
}

// Condition is one entry of the ranked differential
type Condition struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CommonName  string  `json:"common_name"`
	Probability float64 `json:"probability"`
}

// DiagnosisResult is either a question or a stop signal with conditions
type DiagnosisResult struct {
	Question   *DiagnosticQuestion `json:"question,omitempty"`
	ShouldStop bool                `json:"should_stop"`
	Conditions []Condition         `json:"conditions"`
}

// SeriousObservation is a finding the triage flagged as concerning
type SeriousObservation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CommonName  string `json:"common_name,omitempty"`
	IsEmergency bool   `json:"is_emergency"`
}

// TriageResult is produced once per encounter from the accumulated evidence
type TriageResult struct {
	UrgencyLevel        UrgencyLevel         `json:"urgency_level"`
	RecommendedChannel  string               `json:"recommended_channel"`
	SeriousObservations []SeriousObservation `json:"serious_observations"`
	RootCause           string               `json:"root_cause,omitempty"`
}

// SpecialistRecommendation is the provider category best suited to the findings
type SpecialistRecommendation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Provider is a clinician listed in the scheduling directory
type Provider struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Specialty       Specialty `json:"specialty"`
	Location        string    `json:"location"`
	InNetwork       bool      `json:"in_network"`
	Rating          float64   `json:"rating"`
	YearsExperience int       `json:"years_experience"`
}

// AppointmentSlot is a bookable time offered by a provider
type AppointmentSlot struct {
	ID              string          `json:"id"`
	Provider        Provider        `json:"provider"`
	StartTime       time.Time       `json:"start_time"`
	Kind            AppointmentKind `json:"kind"`
	DurationMinutes int             `json:"duration_minutes"`
	EstimatedCost   int             `json:"estimated_cost"`
	IsAvailable     bool            `json:"is_available"`
}

// AppointmentScore is the fit of one slot for one encounter
type AppointmentScore struct {
	Slot                  AppointmentSlot `json:"slot"`
	TotalScore            float64         `json:"total_score"`
	UrgencyComponent      float64         `json:"urgency_component"`
	SpecialistComponent   float64         `json:"specialist_component"`
	AvailabilityComponent float64         `json:"availability_component"`
	Reasoning             []string        `json:"reasoning"`
}

// AlternativeCare is a non-appointment care option shown next to the ranking
type AlternativeCare struct {
	Name         string `json:"name"`
	CostRange    string `json:"cost_range"`
	Availability string `json:"availability"`
	BestFor      string `json:"best_for"`
	Recommended  bool   `json:"recommended"`
}

// SlotQuery narrows a directory lookup
type SlotQuery struct {
	Specialty *Specialty       `json:"specialty,omitempty"`
	DaysAhead int              `json:"days_ahead"`
	Kind      *AppointmentKind `json:"kind,omitempty"`
}

// SuggestRequest is the input of a suggestion round-trip
type SuggestRequest struct {
	Evidence     []EvidenceItem
	Demographics Demographics
	Method       SuggestMethod
	InterviewID  string
}

// LogFields returns structured fields describing the slot
func (s AppointmentSlot) LogFields() map[string]any {
	return map[string]any{
		"slot_id":     s.ID,
		"provider_id": s.Provider.ID,
		"specialty":   s.Provider.Specialty,
		"start_time":  s.StartTime.Format(time.RFC3339),
		"available":   s.IsAvailable,
	}
}

func (s AppointmentScore) String() string {
	return fmt.Sprintf("%s %.3f (u=%.2f s=%.2f a=%.2f)",
		s.Slot.ID, s.TotalScore, s.UrgencyComponent, s.SpecialistComponent, s.AvailabilityComponent)
}
