// Package interview runs the staged evidence-collection protocol against the
// clinical decision service.
package interview

import (
	"strings"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/evidence"
	"github.com/google/uuid"
)

// HistoryEntry is one recorded answer in the interview audit trail
type HistoryEntry struct {
	Stage        domain.Stage        `json:"stage"`
	Question     string              `json:"question"`
	QuestionType domain.QuestionType `json:"question_type"`
	ItemID       string              `json:"item_id"`
	ItemName     string              `json:"item_name,omitempty"`
	Response     domain.Presence     `json:"response"`
	Timestamp    time.Time           `json:"timestamp"`
}

// Session is the state of one patient interview. It has a single owner and is not
// safe for concurrent use; Store.With serialises access for hosted sessions.
type Session struct {
	ID           string
	Demographics domain.Demographics
	CreatedAt    time.Time

	ledger         *evidence.Ledger
	stage          domain.Stage
	questionsAsked int
	history        []HistoryEntry
	conditions     []domain.Condition
	pending        *domain.DiagnosticQuestion
	candidates     map[string]domain.Suggestion
	complete       bool
}

// Progress summarises how far an interview has got
type Progress struct {
	Stage           domain.Stage `json:"stage"`
	QuestionsAsked  int          `json:"questions_asked"`
	EvidenceCount   int          `json:"evidence_count"`
	IsComplete      bool         `json:"is_complete"`
	ConditionsCount int          `json:"conditions_count"`
}

// Results is the outcome of a completed interview
type Results struct {
	Conditions     []domain.Condition    `json:"conditions"`
	Evidence       []domain.EvidenceItem `json:"evidence"`
	QuestionsAsked int                   `json:"questions_asked"`
	History        []HistoryEntry        `json:"history"`
}

// NewSession creates a session in NOT_STARTED for valid demographics
func NewSession(demographics domain.Demographics) (*Session, error) {
	if err := demographics.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		ID:           strings.ReplaceAll(uuid.NewString(), "-", ""),
		Demographics: demographics,
		CreatedAt:    time.Now().UTC(),
		ledger:       evidence.NewLedger(),
		stage:        domain.STAGE_NOT_STARTED,
		candidates:   make(map[string]domain.Suggestion),
	}, nil
}

func (s *Session) Stage() domain.Stage {
	return s.stage
}

func (s *Session) IsComplete() bool {
	return s.complete
}

func (s *Session) QuestionsAsked() int {
	return s.questionsAsked
}

// Evidence returns the de-duplicated evidence view sent to the decision service
func (s *Session) Evidence() []domain.EvidenceItem {
	return s.ledger.Current()
}

// EvidenceHistory returns every appended evidence entry
func (s *Session) EvidenceHistory() []domain.EvidenceItem {
	return s.ledger.History()
}

func (s *Session) History() []HistoryEntry {
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) Conditions() []domain.Condition {
	out := make([]domain.Condition, len(s.conditions))
	copy(out, s.conditions)
	return out
}

// PendingQuestion is the last question returned by NextQuestion, or nil
func (s *Session) PendingQuestion() *domain.DiagnosticQuestion {
	return s.pending
}

func (s *Session) progress() Progress {
	return Progress{
		Stage:           s.stage,
		QuestionsAsked:  s.questionsAsked,
		EvidenceCount:   s.ledger.Distinct(),
		IsComplete:      s.complete,
		ConditionsCount: len(s.conditions),
	}
}

func (s *Session) itemName(id string) string {
	if c, ok := s.candidates[id]; ok {
		if c.CommonName != "" {
			return c.CommonName
		}
		return c.Name
	}
	if s.pending != nil {
		for _, item := range s.pending.Items {
			if item.ID == id {
				return item.Name
			}
		}
	}
	return ""
}
