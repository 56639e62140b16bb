// Package domain contains the core entities and closed enumerations used to route a
// patient's symptom description to ranked appointment slots.
//
// Urgency levels follow the five-level triage scale exposed by the clinical decision
// service: from emergency_ambulance (call an ambulance) to self_care (no visit needed).
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// UrgencyLevel represents the triage classification returned by the decision service.
// Levels are ordered by severity; see Severity.
type UrgencyLevel string

const (
	EMERGENCY_AMBULANCE UrgencyLevel = "emergency_ambulance"
	EMERGENCY           UrgencyLevel = "emergency"
	CONSULTATION_24     UrgencyLevel = "consultation_24"
	CONSULTATION        UrgencyLevel = "consultation"
	SELF_CARE           UrgencyLevel = "self_care"
)

// Stage represents a step of the evidence-collection interview
type Stage string

const (
	STAGE_NOT_STARTED      Stage = "NOT_STARTED"
	STAGE_INITIAL_SYMPTOMS Stage = "INITIAL_SYMPTOMS"
	STAGE_RISK_FACTORS     Stage = "RISK_FACTORS"
	STAGE_RELATED_SYMPTOMS Stage = "RELATED_SYMPTOMS"
	STAGE_RED_FLAGS        Stage = "RED_FLAGS"
	STAGE_INTERVIEW_LOOP   Stage = "INTERVIEW_LOOP"
	STAGE_COMPLETE         Stage = "COMPLETE"
)

// Presence is how strongly a session asserts a clinical finding
type Presence string

const (
	PresencePresent Presence = "present"
	PresenceAbsent  Presence = "absent"
	PresenceUnknown Presence = "unknown"
)

// EvidenceSource records which interview step produced a finding
type EvidenceSource string

const (
	SourceInitial    EvidenceSource = "initial"
	SourceSuggested  EvidenceSource = "suggested"
	SourcePredefined EvidenceSource = "predefined"
)

// QuestionType distinguishes single-item questions from grouped ones
type QuestionType string

const (
	QuestionSingle  QuestionType = "single"
	QuestionGroup   QuestionType = "group"
	QuestionInitial QuestionType = "initial"
)

// SuggestMethod selects which kind of candidates the decision service suggests
type SuggestMethod string

const (
	SuggestRiskFactors SuggestMethod = "demographic_risk_factors"
	SuggestSymptoms    SuggestMethod = "symptoms"
	SuggestRedFlags    SuggestMethod = "red_flags"
)

// Sex is the biological sex the decision service expects
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Specialty is the internal provider specialty category
type Specialty string

const (
	SpecialtyPrimaryCare Specialty = "Primary Care"
	SpecialtyCardiology  Specialty = "Cardiology"
	SpecialtyDermatology Specialty = "Dermatology"
	SpecialtyOrthopedics Specialty = "Orthopedics"
	SpecialtyNeurology   Specialty = "Neurology"
	SpecialtyPsychiatry  Specialty = "Psychiatry"
	SpecialtyPediatrics  Specialty = "Pediatrics"
)

// GeneralistSpecialty is the fallback category for unmapped recommendations
const GeneralistSpecialty = SpecialtyPrimaryCare

// AppointmentKind is the type of visit a slot is offered for
type AppointmentKind string

const (
	KindNewPatient     AppointmentKind = "New Patient"
	KindFollowUp       AppointmentKind = "Follow-up"
	KindUrgentCare     AppointmentKind = "Urgent Care"
	KindAnnualPhysical AppointmentKind = "Annual Physical"
	KindProcedure      AppointmentKind = "Procedure"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrCircuitOpen         = errors.New("circuit breaker open")
	ErrInvalidUrgencyLevel = errors.New("invalid urgency level")
	ErrInvalidPresence     = errors.New("invalid presence")
	ErrInvalidSex          = errors.New("invalid sex")
	ErrInvalidSpecialty    = errors.New("invalid specialty")
)

// AllUrgencyLevels lists the levels from most to least severe
func AllUrgencyLevels() []UrgencyLevel {
	return []UrgencyLevel{EMERGENCY_AMBULANCE, EMERGENCY, CONSULTATION_24, CONSULTATION, SELF_CARE}
}

// IsValid reports whether the level is one of the five triage levels
func (u UrgencyLevel) IsValid() bool {
	switch u {
	case EMERGENCY_AMBULANCE, EMERGENCY, CONSULTATION_24, CONSULTATION, SELF_CARE:
		return true
	default:
		return false
	}
}

// Severity returns 5 for emergency_ambulance down to 1 for self_care, 0 if invalid
func (u UrgencyLevel) Severity() int {
	switch u {
	case EMERGENCY_AMBULANCE:
		return 5
	case EMERGENCY:
		return 4
	case CONSULTATION_24:
		return 3
	case CONSULTATION:
		return 2
	case SELF_CARE:
		return 1
	default:
		return 0
	}
}

// IsEmergency reports whether the level requires the narrow urgent window
func (u UrgencyLevel) IsEmergency() bool {
	return u == EMERGENCY_AMBULANCE || u == EMERGENCY
}

func (u UrgencyLevel) String() string {
	return string(u)
}

// ParseUrgencyLevel converts a wire value into an UrgencyLevel
func ParseUrgencyLevel(s string) (UrgencyLevel, error) {
	level := UrgencyLevel(strings.ToLower(strings.TrimSpace(s)))
	if !level.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUrgencyLevel, s)
	}
	return level, nil
}

// Order returns the position of the stage in the interview sequence
func (s Stage) Order() int {
	switch s {
	case STAGE_NOT_STARTED:
		return 0
	case STAGE_INITIAL_SYMPTOMS:
		return 1
	case STAGE_RISK_FACTORS:
		return 2
	case STAGE_RELATED_SYMPTOMS:
		return 3
	case STAGE_RED_FLAGS:
		return 4
	case STAGE_INTERVIEW_LOOP:
		return 5
	case STAGE_COMPLETE:
		return 6
	default:
		return -1
	}
}

func (s Stage) IsValid() bool {
	return s.Order() >= 0
}

func (s Stage) String() string {
	return string(s)
}

// IsValid reports whether the presence is present, absent or unknown
func (p Presence) IsValid() bool {
	switch p {
	case PresencePresent, PresenceAbsent, PresenceUnknown:
		return true
	default:
		return false
	}
}

// ParsePresence accepts present/absent/unknown, case-insensitively
func ParsePresence(s string) (Presence, error) {
	p := Presence(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPresence, s)
	}
	return p, nil
}

func (s EvidenceSource) IsValid() bool {
	switch s {
	case SourceInitial, SourceSuggested, SourcePredefined:
		return true
	default:
		return false
	}
}

// WireValue is the source name the decision service expects
func (s EvidenceSource) WireValue() string {
	if s == SourceSuggested {
		return "suggest"
	}
	return string(s)
}

// ParseQuestionType folds the service's grouped question variants into QuestionGroup
func ParseQuestionType(s string) QuestionType {
	switch strings.ToLower(s) {
	case "group_single", "group_multiple", "group":
		return QuestionGroup
	default:
		return QuestionSingle
	}
}

func (s Sex) IsValid() bool {
	return s == SexMale || s == SexFemale
}

// ParseSex accepts male or female, case-insensitively
func ParseSex(s string) (Sex, error) {
	sex := Sex(strings.ToLower(strings.TrimSpace(s)))
	if !sex.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSex, s)
	}
	return sex, nil
}

// AllSpecialties lists every provider category
func AllSpecialties() []Specialty {
	return []Specialty{
		SpecialtyPrimaryCare,
		SpecialtyCardiology,
		SpecialtyDermatology,
		SpecialtyOrthopedics,
		SpecialtyNeurology,
		SpecialtyPsychiatry,
		SpecialtyPediatrics,
	}
}

func (s Specialty) IsValid() bool {
	for _, known := range AllSpecialties() {
		if s == known {
			return true
		}
	}
	return false
}

func (s Specialty) String() string {
	return string(s)
}

// ParseSpecialty matches a category name case-insensitively
func ParseSpecialty(s string) (Specialty, error) {
	trimmed := strings.TrimSpace(s)
	for _, known := range AllSpecialties() {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSpecialty, s)
}

// AllAppointmentKinds lists every visit type
func AllAppointmentKinds() []AppointmentKind {
	return []AppointmentKind{KindNewPatient, KindFollowUp, KindUrgentCare, KindAnnualPhysical, KindProcedure}
}

func (k AppointmentKind) IsValid() bool {
	switch k {
	case KindNewPatient, KindFollowUp, KindUrgentCare, KindAnnualPhysical, KindProcedure:
		return true
	default:
		return false
	}
}
