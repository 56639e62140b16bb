package domain

import (
	"context"
)

// DecisionService is the contract consumed from the external clinical decision service
type DecisionService interface {
	Parse(ctx context.Context, text string, demographics Demographics) ([]Finding, error)
	Triage(ctx context.Context, evidence []EvidenceItem, demographics Demographics) (*TriageResult, error)
	RecommendSpecialist(ctx context.Context, evidence []EvidenceItem, demographics Demographics) (*SpecialistRecommendation, error)
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
	Diagnosis(ctx context.Context, evidence []EvidenceItem, demographics Demographics, interviewID string) (*DiagnosisResult, error)
}

// SchedulingDirectory supplies provider and appointment-slot data
type SchedulingDirectory interface {
	QuerySlots(ctx context.Context, query SlotQuery) ([]AppointmentSlot, error)
	QueryUrgentSlots(ctx context.Context, specialty *Specialty) ([]AppointmentSlot, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDecisionConfig() *DecisionConfig
	GetDatabaseConfig() *DatabaseConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	IsProduction() bool
	IsDevelopment() bool
}
