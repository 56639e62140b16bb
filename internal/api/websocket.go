package api

import (
	"context"
	"net/http"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/interview"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Websocket actions
const (
	actionCollectRiskFactors = "collect_risk_factors"
	actionCollectRelated     = "collect_related"
	actionCheckRedFlags      = "check_red_flags"
	actionRecord             = "record"
	actionNextQuestion       = "next_question"
	actionAnswer             = "answer"
	actionProgress           = "progress"
	actionResults            = "results"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsMessage is one client instruction. Answers carries items for record;
// ID and Presence carry a single answer.
type wsMessage struct {
	Action   string   `json:"action"`
	ID       string   `json:"id,omitempty"`
	Presence string   `json:"presence,omitempty"`
	Answers  []answer `json:"answers,omitempty"`
}

type wsReply struct {
	Action               string                     `json:"action"`
	Suggestions          []domain.Suggestion        `json:"suggestions,omitempty"`
	Question             *domain.DiagnosticQuestion `json:"question,omitempty"`
	QuestionLimitReached bool                       `json:"question_limit_reached,omitempty"`
	Progress             *interview.Progress        `json:"progress,omitempty"`
	Results              *interview.Results         `json:"results,omitempty"`
	Error                *domain.APIError           `json:"error,omitempty"`
}

// handleWebSocket drives one interview over a websocket connection
func (s *Server) handleWebSocket(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.deps.Sessions.Get(id); err != nil {
		s.respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).WithField("interview_id", id).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.logger.WithField("interview_id", id)
	log.Info("Websocket interview connected")

	// The connection context ends when the client goes away, cancelling any
	// decision-service call still running for it.
	connCtx, cancelConn := context.WithCancel(c.Request.Context())
	defer cancelConn()

	inbox := make(chan wsMessage)
	go func() {
		defer close(inbox)
		defer cancelConn()
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).Warn("Websocket read failed")
				}
				return
			}
			select {
			case inbox <- msg:
			case <-connCtx.Done():
				return
			}
		}
	}()

	for msg := range inbox {
		ctx, cancel := s.actionContext(connCtx)
		reply := s.dispatch(ctx, id, msg, c.GetString(requestIDKey))
		cancel()

		if connCtx.Err() != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("Websocket write failed")
			return
		}
	}
}

// actionContext bounds one websocket action like a single HTTP request
func (s *Server) actionContext(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout := s.configManager.GetConfig().Server.RequestTimeout; timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}

// dispatch runs one action under the session lock
func (s *Server) dispatch(ctx context.Context, id string, msg wsMessage, requestID string) wsReply {
	reply := wsReply{Action: msg.Action}
	it := s.deps.Interviewer

	err := s.deps.Sessions.With(id, func(sess *interview.Session) error {
		switch msg.Action {
		case actionCollectRiskFactors, actionCollectRelated, actionCheckRedFlags:
			st := map[string]step{
				actionCollectRiskFactors: stepRiskFactors,
				actionCollectRelated:     stepRelatedSymptoms,
				actionCheckRedFlags:      stepRedFlags,
			}[msg.Action]
			suggestions, err := st.collect(ctx, it, sess)
			if err != nil {
				return err
			}
			reply.Suggestions = suggestions
		case actionRecord:
			answers := msg.Answers
			if len(answers) == 0 && msg.ID != "" {
				answers = []answer{{ID: msg.ID, Presence: msg.Presence}}
			}
			st := stepFor(sess.Stage())
			if err := recordAll(answers, domain.SourceSuggested, func(itemID string, p domain.Presence) error {
				return st.record(it, sess, itemID, p)
			}); err != nil {
				return err
			}
		case actionNextQuestion:
			resp, err := s.nextQuestion(ctx, sess)
			if err != nil {
				return err
			}
			reply.Question = resp.Question
			reply.QuestionLimitReached = resp.QuestionLimitReached
		case actionAnswer:
			if err := recordAll([]answer{{ID: msg.ID, Presence: msg.Presence}}, domain.SourcePredefined, func(itemID string, p domain.Presence) error {
				return it.Answer(sess, itemID, p)
			}); err != nil {
				return err
			}
		case actionProgress:
		case actionResults:
			results, err := it.FinalResults(sess)
			if err != nil {
				return err
			}
			reply.Results = results
		default:
			return domain.NewValidationError("action", "unknown action", msg.Action)
		}

		progress := it.Progress(sess)
		reply.Progress = &progress
		return nil
	})
	if err != nil {
		_, reply.Error = classify(err, requestID)
		s.logger.WithFields(logrus.Fields{
			"interview_id": id,
			"action":       msg.Action,
			"code":         reply.Error.Code,
		}).WithError(err).Debug("Websocket action rejected")
	}
	return reply
}
