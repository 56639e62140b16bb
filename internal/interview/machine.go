package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/sirupsen/logrus"
)

// Prompts recorded in the history for the opening and suggestion stages
const (
	initialSymptomsPrompt = "Initial symptoms"
	riskFactorPrompt      = "Do any of these risk factors apply to you?"
	relatedSymptomPrompt  = "Do you have any of these related symptoms?"
	redFlagPrompt         = "Are you experiencing any of these warning signs?"
)

var errEmptyDiagnosis = errors.New("empty diagnosis response")

// TransitionObserver is notified of every stage change
type TransitionObserver interface {
	ObserveTransition(to domain.Stage)
}

// Interviewer drives sessions through the interview stages
type Interviewer struct {
	decision domain.DecisionService
	observer TransitionObserver
	logger   *logrus.Logger
	now      func() time.Time
}

// NewInterviewer creates an interviewer. observer may be nil.
func NewInterviewer(decision domain.DecisionService, observer TransitionObserver, logger *logrus.Logger) *Interviewer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Interviewer{
		decision: decision,
		observer: observer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start records the initial symptoms and opens the interview
func (it *Interviewer) Start(s *Session, initialSymptoms []string) error {
	if err := expect(s, "Start", domain.STAGE_NOT_STARTED); err != nil {
		return err
	}
	if len(initialSymptoms) == 0 {
		return domain.NewValidationError("initial_symptoms", "at least one initial symptom is required", nil)
	}

	items := make([]domain.EvidenceItem, 0, len(initialSymptoms))
	for _, id := range initialSymptoms {
		item := domain.EvidenceItem{ID: id, Presence: domain.PresencePresent, Source: domain.SourceInitial}
		if err := item.Validate(); err != nil {
			return err
		}
		items = append(items, item)
	}
	if err := s.ledger.AppendAll(items...); err != nil {
		return err
	}

	now := it.now()
	for _, item := range items {
		s.history = append(s.history, HistoryEntry{
			Stage:        domain.STAGE_INITIAL_SYMPTOMS,
			Question:     initialSymptomsPrompt,
			QuestionType: domain.QuestionInitial,
			ItemID:       item.ID,
			ItemName:     s.itemName(item.ID),
			Response:     item.Presence,
			Timestamp:    now,
		})
	}

	it.advance(s, domain.STAGE_INITIAL_SYMPTOMS)
	return nil
}

// CollectRiskFactors asks the decision service for demographic risk factors
func (it *Interviewer) CollectRiskFactors(ctx context.Context, s *Session) ([]domain.Suggestion, error) {
	return it.collect(ctx, s, "CollectRiskFactors", domain.STAGE_INITIAL_SYMPTOMS, domain.STAGE_RISK_FACTORS, domain.SuggestRiskFactors)
}

// RecordRiskFactor records the patient's answer for one risk factor
func (it *Interviewer) RecordRiskFactor(s *Session, id string, presence domain.Presence) error {
	return it.record(s, "RecordRiskFactor", domain.STAGE_RISK_FACTORS, riskFactorPrompt, id, presence)
}

// CollectRelatedSymptoms asks for symptoms related to the evidence so far
func (it *Interviewer) CollectRelatedSymptoms(ctx context.Context, s *Session) ([]domain.Suggestion, error) {
	return it.collect(ctx, s, "CollectRelatedSymptoms", domain.STAGE_RISK_FACTORS, domain.STAGE_RELATED_SYMPTOMS, domain.SuggestSymptoms)
}

func (it *Interviewer) RecordRelatedSymptom(s *Session, id string, presence domain.Presence) error {
	return it.record(s, "RecordRelatedSymptom", domain.STAGE_RELATED_SYMPTOMS, relatedSymptomPrompt, id, presence)
}

// CheckRedFlags asks for warning signs that would escalate urgency
func (it *Interviewer) CheckRedFlags(ctx context.Context, s *Session) ([]domain.Suggestion, error) {
	return it.collect(ctx, s, "CheckRedFlags", domain.STAGE_RELATED_SYMPTOMS, domain.STAGE_RED_FLAGS, domain.SuggestRedFlags)
}

func (it *Interviewer) RecordRedFlag(s *Session, id string, presence domain.Presence) error {
	return it.record(s, "RecordRedFlag", domain.STAGE_RED_FLAGS, redFlagPrompt, id, presence)
}

// NextQuestion requests the next diagnostic question. It returns nil once the
// decision service signals it has enough evidence; the session is then complete and
// FinalResults is available. On failure the session is left unchanged so the call
// can be retried.
func (it *Interviewer) NextQuestion(ctx context.Context, s *Session) (*domain.DiagnosticQuestion, error) {
	if err := expect(s, "NextQuestion", domain.STAGE_RED_FLAGS, domain.STAGE_INTERVIEW_LOOP); err != nil {
		return nil, err
	}

	result, err := it.decision.Diagnosis(ctx, s.ledger.Current(), s.Demographics, s.ID)
	if err != nil {
		it.logger.WithFields(logrus.Fields{
			"interview_id": s.ID,
			"stage":        s.stage,
		}).WithError(err).Warn("Diagnosis call failed, session left unchanged")
		if domain.IsExternalServiceError(err) {
			return nil, fmt.Errorf("next question: %w", err)
		}
		return nil, domain.NewExternalServiceError("decision", "diagnosis", 0, err)
	}
	if result == nil {
		it.logger.WithField("interview_id", s.ID).Warn("Diagnosis returned no result, session left unchanged")
		return nil, domain.NewExternalServiceError("decision", "diagnosis", 0, errEmptyDiagnosis)
	}

	if s.stage == domain.STAGE_RED_FLAGS {
		it.advance(s, domain.STAGE_INTERVIEW_LOOP)
	}

	if result.ShouldStop || result.Question == nil {
		s.conditions = append([]domain.Condition(nil), result.Conditions...)
		s.pending = nil
		s.complete = true
		it.advance(s, domain.STAGE_COMPLETE)
		return nil, nil
	}

	s.pending = result.Question
	return result.Question, nil
}

// Answer records the patient's answer to an item of the pending question
func (it *Interviewer) Answer(s *Session, itemID string, presence domain.Presence) error {
	if err := expect(s, "Answer", domain.STAGE_INTERVIEW_LOOP); err != nil {
		return err
	}

	item := domain.EvidenceItem{ID: itemID, Presence: presence, Source: domain.SourcePredefined}
	if err := s.ledger.Append(item); err != nil {
		return err
	}
	s.questionsAsked++

	entry := HistoryEntry{
		Stage:     s.stage,
		ItemID:    itemID,
		ItemName:  s.itemName(itemID),
		Response:  presence,
		Timestamp: it.now(),
	}
	if s.pending != nil {
		entry.Question = s.pending.Text
		entry.QuestionType = s.pending.Type
	}
	s.history = append(s.history, entry)
	return nil
}

// Progress reports the session's position in the interview
func (it *Interviewer) Progress(s *Session) Progress {
	return s.progress()
}

// FinalResults returns the ranked conditions of a completed interview
func (it *Interviewer) FinalResults(s *Session) (*Results, error) {
	if !s.complete {
		return nil, domain.NewIllegalStateError("FinalResults", s.stage, domain.STAGE_COMPLETE)
	}
	return &Results{
		Conditions:     s.Conditions(),
		Evidence:       s.ledger.Current(),
		QuestionsAsked: s.questionsAsked,
		History:        s.History(),
	}, nil
}

// collect runs one suggestion stage. A failed suggest call degrades to an empty
// list and the stage still advances.
func (it *Interviewer) collect(ctx context.Context, s *Session, operation string, from, to domain.Stage, method domain.SuggestMethod) ([]domain.Suggestion, error) {
	if err := expect(s, operation, from); err != nil {
		return nil, err
	}

	suggestions, err := it.decision.Suggest(ctx, domain.SuggestRequest{
		Evidence:     s.ledger.Current(),
		Demographics: s.Demographics,
		Method:       method,
		InterviewID:  s.ID,
	})
	if err != nil {
		it.logger.WithFields(logrus.Fields{
			"interview_id": s.ID,
			"method":       method,
		}).WithError(err).Warn("Suggest call failed, continuing without candidates")
		suggestions = nil
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}

	for _, sg := range suggestions {
		s.candidates[sg.ID] = sg
	}
	it.advance(s, to)
	return suggestions, nil
}

func (it *Interviewer) record(s *Session, operation string, stage domain.Stage, prompt, id string, presence domain.Presence) error {
	if err := expect(s, operation, stage); err != nil {
		return err
	}

	item := domain.EvidenceItem{ID: id, Presence: presence, Source: domain.SourceSuggested}
	if err := s.ledger.Append(item); err != nil {
		return err
	}

	s.history = append(s.history, HistoryEntry{
		Stage:        stage,
		Question:     prompt,
		QuestionType: domain.QuestionSingle,
		ItemID:       id,
		ItemName:     s.itemName(id),
		Response:     presence,
		Timestamp:    it.now(),
	})
	return nil
}

func (it *Interviewer) advance(s *Session, to domain.Stage) {
	from := s.stage
	s.stage = to

	it.logger.WithFields(logrus.Fields{
		"interview_id": s.ID,
		"from":         from,
		"to":           to,
	}).Info("Interview stage transition")

	if it.observer != nil {
		it.observer.ObserveTransition(to)
	}
}

func expect(s *Session, operation string, allowed ...domain.Stage) error {
	for _, stage := range allowed {
		if s.stage == stage {
			return nil
		}
	}
	return domain.NewIllegalStateError(operation, s.stage, allowed...)
}
