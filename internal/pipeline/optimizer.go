// Package pipeline turns a symptom description into ranked appointment slots:
// parse, triage, specialist recommendation, slot lookup, scoring and alternatives.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/evidence"
	"github.com/care-router-mcp-server/internal/scoring"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxResults = 5
	DefaultDaysAhead  = 14
)

// Outcomes reported to the observer
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeError           = "error"
)

// fallbackSpecialist is used when specialist recommendation fails and fallback is enabled
var fallbackSpecialist = domain.SpecialistRecommendation{
	ID:       "sp_1",
	Name:     "General Practitioner",
	Category: string(domain.SpecialtyPrimaryCare),
}

// Request is the pipeline input
type Request struct {
	Age         int        `json:"age"`
	Sex         domain.Sex `json:"sex"`
	SymptomText string     `json:"symptom_text"`
}

// Result is the pipeline output
type Result struct {
	Triage                 *domain.TriageResult             `json:"triage"`
	Specialist             *domain.SpecialistRecommendation `json:"specialist"`
	Specialty              domain.Specialty                 `json:"specialty"`
	ParsedSymptoms         []domain.Finding                 `json:"parsed_symptoms,omitempty"`
	ParsedSymptomCount     int                              `json:"parsed_symptom_count"`
	RankedAppointments     []domain.AppointmentScore        `json:"ranked_appointments"`
	AlternativeCareOptions []domain.AlternativeCare         `json:"alternative_care_options"`
	SpecialistFallback     bool                             `json:"specialist_fallback"`
	GeneratedAt            time.Time                        `json:"generated_at"`
}

// Observer receives one observation per pipeline run
type Observer interface {
	ObservePipeline(outcome string, duration time.Duration, ranked int)
}

// Options tunes the optimizer
type Options struct {
	MaxResults         int
	DaysAhead          int
	SpecialistFallback bool
	Observer           Observer
	Clock              func() time.Time
}

// OptionsFrom converts the application config section
func OptionsFrom(cfg domain.PipelineConfig) Options {
	return Options{
		MaxResults:         cfg.MaxResults,
		DaysAhead:          cfg.DaysAhead,
		SpecialistFallback: cfg.SpecialistFallback,
	}
}

// Optimizer orchestrates the decision service, the directory and the scoring engine
type Optimizer struct {
	decision  domain.DecisionService
	directory domain.SchedulingDirectory
	opts      Options
	logger    *logrus.Logger
}

// NewOptimizer creates an optimizer
func NewOptimizer(decision domain.DecisionService, directory domain.SchedulingDirectory, opts Options, logger *logrus.Logger) *Optimizer {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.DaysAhead <= 0 {
		opts.DaysAhead = DefaultDaysAhead
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Optimizer{
		decision:  decision,
		directory: directory,
		opts:      opts,
		logger:    logger,
	}
}

// Validate checks a request before any external call is made
func (r Request) Validate() error {
	if strings.TrimSpace(r.SymptomText) == "" {
		return domain.NewValidationError("symptom_text", "symptom text is required", r.SymptomText)
	}
	return domain.Demographics{Age: r.Age, Sex: r.Sex}.Validate()
}

// Optimize runs the full pipeline for free-text symptoms
func (o *Optimizer) Optimize(ctx context.Context, req Request) (result *Result, err error) {
	start := time.Now()
	defer func() { o.observe(start, result, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	demographics := domain.Demographics{Age: req.Age, Sex: req.Sex}

	findings, err := o.decision.Parse(ctx, req.SymptomText, demographics)
	if err != nil {
		return nil, fmt.Errorf("parse symptoms: %w", err)
	}
	if len(findings) == 0 {
		return nil, domain.NewValidationError("symptom_text", "no recognizable symptoms in text", req.SymptomText)
	}
	o.logger.WithField("findings", len(findings)).Info("Parsed symptoms")

	ledger := evidence.NewLedger()
	for _, f := range findings {
		if err := ledger.Append(domain.EvidenceItem{ID: f.ID, Presence: domain.PresencePresent, Source: domain.SourceInitial}); err != nil {
			return nil, fmt.Errorf("parse symptoms: %w", err)
		}
	}

	result, err = o.route(ctx, demographics, ledger.Current())
	if err != nil {
		return nil, err
	}
	result.ParsedSymptoms = findings
	result.ParsedSymptomCount = len(findings)
	return result, nil
}

// OptimizeFromEvidence routes on evidence the caller already holds, such as the
// outcome of a completed interview.
func (o *Optimizer) OptimizeFromEvidence(ctx context.Context, demographics domain.Demographics, items []domain.EvidenceItem) (result *Result, err error) {
	start := time.Now()
	defer func() { o.observe(start, result, err) }()

	if err := demographics.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("evidence", "at least one evidence item is required", nil)
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	result, err = o.route(ctx, demographics, items)
	if err != nil {
		return nil, err
	}
	result.ParsedSymptomCount = countPresent(items)
	return result, nil
}

// route runs triage through alternatives
func (o *Optimizer) route(ctx context.Context, demographics domain.Demographics, items []domain.EvidenceItem) (*Result, error) {
	triage, err := o.decision.Triage(ctx, items, demographics)
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}
	o.logger.WithFields(logrus.Fields{
		"urgency":  triage.UrgencyLevel,
		"channel":  triage.RecommendedChannel,
		"evidence": len(items),
	}).Info("Triage complete")

	specialist, fallback, err := o.recommendSpecialist(ctx, items, demographics)
	if err != nil {
		return nil, err
	}

	specialty := NormalizeSpecialty(specialist.Name)
	slots, err := o.fetchSlots(ctx, triage.UrgencyLevel, specialty)
	if err != nil {
		return nil, fmt.Errorf("fetch slots: %w", err)
	}

	now := o.opts.Clock()
	ranked := scoring.Rank(triage.UrgencyLevel, string(specialty), slots, o.opts.MaxResults, now)
	o.logger.WithFields(logrus.Fields{
		"specialist": specialist.Name,
		"specialty":  specialty,
		"candidates": len(slots),
		"ranked":     len(ranked),
	}).Info("Ranked appointment slots")

	return &Result{
		Triage:                 triage,
		Specialist:             specialist,
		Specialty:              specialty,
		RankedAppointments:     ranked,
		AlternativeCareOptions: Alternatives(triage.UrgencyLevel),
		SpecialistFallback:     fallback,
		GeneratedAt:            now.UTC(),
	}, nil
}

func (o *Optimizer) recommendSpecialist(ctx context.Context, items []domain.EvidenceItem, demographics domain.Demographics) (*domain.SpecialistRecommendation, bool, error) {
	specialist, err := o.decision.RecommendSpecialist(ctx, items, demographics)
	if err == nil {
		return specialist, false, nil
	}
	if !o.opts.SpecialistFallback {
		return nil, false, fmt.Errorf("recommend specialist: %w", err)
	}

	o.logger.WithError(err).Warn("Specialist recommendation failed, falling back to general practitioner")
	rec := fallbackSpecialist
	return &rec, true, nil
}

func (o *Optimizer) fetchSlots(ctx context.Context, level domain.UrgencyLevel, specialty domain.Specialty) ([]domain.AppointmentSlot, error) {
	if level.IsEmergency() {
		return o.directory.QueryUrgentSlots(ctx, &specialty)
	}
	return o.directory.QuerySlots(ctx, domain.SlotQuery{
		Specialty: &specialty,
		DaysAhead: o.opts.DaysAhead,
	})
}

func (o *Optimizer) observe(start time.Time, result *Result, err error) {
	if o.opts.Observer == nil {
		return
	}
	outcome := OutcomeSuccess
	ranked := 0
	switch {
	case domain.IsValidationError(err):
		outcome = OutcomeValidationError
	case err != nil:
		outcome = OutcomeError
	default:
		ranked = len(result.RankedAppointments)
	}
	o.opts.Observer.ObservePipeline(outcome, time.Since(start), ranked)
}

func countPresent(items []domain.EvidenceItem) int {
	n := 0
	for _, item := range items {
		if item.Presence == domain.PresencePresent {
			n++
		}
	}
	return n
}
