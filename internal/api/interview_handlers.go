package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/interview"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// step names one adjudication stage of the interview
type step int

const (
	stepRiskFactors step = iota
	stepRelatedSymptoms
	stepRedFlags
)

func (st step) collect(ctx context.Context, it *interview.Interviewer, s *interview.Session) ([]domain.Suggestion, error) {
	switch st {
	case stepRiskFactors:
		return it.CollectRiskFactors(ctx, s)
	case stepRelatedSymptoms:
		return it.CollectRelatedSymptoms(ctx, s)
	default:
		return it.CheckRedFlags(ctx, s)
	}
}

func (st step) record(it *interview.Interviewer, s *interview.Session, id string, presence domain.Presence) error {
	switch st {
	case stepRiskFactors:
		return it.RecordRiskFactor(s, id, presence)
	case stepRelatedSymptoms:
		return it.RecordRelatedSymptom(s, id, presence)
	default:
		return it.RecordRedFlag(s, id, presence)
	}
}

// stepFor picks the record operation matching the session's current stage
func stepFor(stage domain.Stage) step {
	switch stage {
	case domain.STAGE_RELATED_SYMPTOMS:
		return stepRelatedSymptoms
	case domain.STAGE_RED_FLAGS:
		return stepRedFlags
	default:
		return stepRiskFactors
	}
}

type createInterviewRequest struct {
	Age             int        `json:"age"`
	Sex             domain.Sex `json:"sex"`
	SymptomText     string     `json:"symptom_text"`
	InitialSymptoms []string   `json:"initial_symptoms"`
}

type createInterviewResponse struct {
	InterviewID    string             `json:"interview_id"`
	ParsedSymptoms []domain.Finding   `json:"parsed_symptoms,omitempty"`
	Progress       interview.Progress `json:"progress"`
}

// answer is one adjudicated item
type answer struct {
	ID       string `json:"id"`
	Presence string `json:"presence"`
}

type collectResponse struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Progress    interview.Progress  `json:"progress"`
}

type questionResponse struct {
	Question             *domain.DiagnosticQuestion `json:"question"`
	QuestionLimitReached bool                       `json:"question_limit_reached"`
	Progress             interview.Progress         `json:"progress"`
}

func (s *Server) handleCreateInterview(c *gin.Context) {
	var req createInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	demographics := domain.Demographics{Age: req.Age, Sex: req.Sex}
	if err := demographics.Validate(); err != nil {
		s.respondError(c, err)
		return
	}

	symptoms := req.InitialSymptoms
	var findings []domain.Finding
	if len(symptoms) == 0 {
		if strings.TrimSpace(req.SymptomText) == "" {
			s.respondError(c, domain.NewValidationError("symptom_text", "symptom text or initial symptoms are required", ""))
			return
		}
		var err error
		findings, err = s.deps.Decision.Parse(c.Request.Context(), req.SymptomText, demographics)
		if err != nil {
			s.respondError(c, err)
			return
		}
		for _, f := range findings {
			symptoms = append(symptoms, f.ID)
		}
		if len(symptoms) == 0 {
			s.respondError(c, domain.NewValidationError("symptom_text", "no recognizable symptoms in text", req.SymptomText))
			return
		}
	}

	session, err := s.deps.Sessions.Create(demographics)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var progress interview.Progress
	err = s.deps.Sessions.With(session.ID, func(sess *interview.Session) error {
		if err := s.deps.Interviewer.Start(sess, symptoms); err != nil {
			return err
		}
		progress = s.deps.Interviewer.Progress(sess)
		return nil
	})
	if err != nil {
		s.deps.Sessions.Delete(session.ID)
		s.respondError(c, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"interview_id": session.ID,
		"symptoms":     len(symptoms),
	}).Info("Interview created")

	c.JSON(http.StatusCreated, createInterviewResponse{
		InterviewID:    session.ID,
		ParsedSymptoms: findings,
		Progress:       progress,
	})
}

func (s *Server) handleDeleteInterview(c *gin.Context) {
	if !s.deps.Sessions.Delete(c.Param("id")) {
		s.respondError(c, domain.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCollect(st step) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resp collectResponse
		err := s.deps.Sessions.With(c.Param("id"), func(sess *interview.Session) error {
			suggestions, err := st.collect(c.Request.Context(), s.deps.Interviewer, sess)
			if err != nil {
				return err
			}
			resp = collectResponse{Suggestions: suggestions, Progress: s.deps.Interviewer.Progress(sess)}
			return nil
		})
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) handleRecord(st step) gin.HandlerFunc {
	return func(c *gin.Context) {
		var answers []answer
		if err := c.ShouldBindJSON(&answers); err != nil {
			s.respondError(c, bindError(err))
			return
		}

		var progress interview.Progress
		err := s.deps.Sessions.With(c.Param("id"), func(sess *interview.Session) error {
			if err := recordAll(answers, domain.SourceSuggested, func(id string, p domain.Presence) error {
				return st.record(s.deps.Interviewer, sess, id, p)
			}); err != nil {
				return err
			}
			progress = s.deps.Interviewer.Progress(sess)
			return nil
		})
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, progress)
	}
}

// recordAll validates every answer before recording any of them. The ledger is
// append-only, so a batch that fails part way cannot be rolled back.
func recordAll(answers []answer, source domain.EvidenceSource, record func(string, domain.Presence) error) error {
	parsed := make([]domain.Presence, len(answers))
	for i, a := range answers {
		p, err := domain.ParsePresence(a.Presence)
		if err != nil {
			return domain.NewValidationError("presence", err.Error(), a.Presence)
		}
		item := domain.EvidenceItem{ID: a.ID, Presence: p, Source: source}
		if err := item.Validate(); err != nil {
			return err
		}
		parsed[i] = p
	}
	for i, a := range answers {
		if err := record(a.ID, parsed[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleNextQuestion(c *gin.Context) {
	var resp questionResponse
	err := s.deps.Sessions.With(c.Param("id"), func(sess *interview.Session) error {
		var err error
		resp, err = s.nextQuestion(c.Request.Context(), sess)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// nextQuestion applies the configured question cap before asking the service
func (s *Server) nextQuestion(ctx context.Context, sess *interview.Session) (questionResponse, error) {
	limit := s.configManager.GetConfig().Interview.MaxQuestions
	if limit > 0 && sess.QuestionsAsked() >= limit && !sess.IsComplete() {
		return questionResponse{
			QuestionLimitReached: true,
			Progress:             s.deps.Interviewer.Progress(sess),
		}, nil
	}

	question, err := s.deps.Interviewer.NextQuestion(ctx, sess)
	if err != nil {
		return questionResponse{}, err
	}
	return questionResponse{Question: question, Progress: s.deps.Interviewer.Progress(sess)}, nil
}

func (s *Server) handleAnswer(c *gin.Context) {
	var a answer
	if err := c.ShouldBindJSON(&a); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	var progress interview.Progress
	err := s.deps.Sessions.With(c.Param("id"), func(sess *interview.Session) error {
		if err := recordAll([]answer{a}, domain.SourcePredefined, func(id string, p domain.Presence) error {
			return s.deps.Interviewer.Answer(sess, id, p)
		}); err != nil {
			return err
		}
		progress = s.deps.Interviewer.Progress(sess)
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) handleProgress(c *gin.Context) {
	var progress interview.Progress
	err := s.deps.Sessions.With(c.Param("id"), func(sess *interview.Session) error {
		progress = s.deps.Interviewer.Progress(sess)
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) handleResults(c *gin.Context) {
	var results *interview.Results
	err := s.deps.Sessions.With(c.Param("id"), func(sess *interview.Session) error {
		var err error
		results, err = s.deps.Interviewer.FinalResults(sess)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// handleInterviewRoute runs the pipeline over the evidence collected so far
func (s *Server) handleInterviewRoute(c *gin.Context) {
	var result *pipeline.Result
	err := s.deps.Sessions.With(c.Param("id"), func(sess *interview.Session) error {
		if sess.Stage() == domain.STAGE_NOT_STARTED {
			return domain.NewIllegalStateError("Route", sess.Stage(), domain.STAGE_INITIAL_SYMPTOMS)
		}
		var err error
		result, err = s.deps.Optimizer.OptimizeFromEvidence(c.Request.Context(), sess.Demographics, sess.Evidence())
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
