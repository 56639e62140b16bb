package external

import (
	"strings"

	"github.com/care-router-mcp-server/internal/domain"
)

// Wire shapes of the decision service's JSON API (Infermedica v3 compatible).

type wireAge struct {
	Value int `json:"value"`
}

type wireEvidence struct {
	ID       string `json:"id"`
	ChoiceID string `json:"choice_id"`
	Source   string `json:"source,omitempty"`
}

type parseRequest struct {
	Text          string  `json:"text"`
	Age           wireAge `json:"age"`
	Sex           string  `json:"sex"`
	IncludeTokens bool    `json:"include_tokens"`
}

type parseResponse struct {
	Mentions []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		CommonName string `json:"common_name"`
		ChoiceID   string `json:"choice_id"`
		Type       string `json:"type"`
	} `json:"mentions"`
	Obvious bool `json:"obvious"`
}

type evidenceRequest struct {
	Sex      string         `json:"sex"`
	Age      wireAge        `json:"age"`
	Evidence []wireEvidence `json:"evidence"`
}

type suggestRequest struct {
	Sex           string         `json:"sex"`
	Age           wireAge        `json:"age"`
	Evidence      []wireEvidence `json:"evidence,omitempty"`
	SuggestMethod string         `json:"suggest_method"`
}

type suggestItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CommonName string `json:"common_name"`
}

type diagnosisRequest struct {
	Sex      string         `json:"sex"`
	Age      wireAge        `json:"age"`
	Evidence []wireEvidence `json:"evidence"`
	Extras   map[string]any `json:"extras,omitempty"`
}

type diagnosisResponse struct {
	Question *struct {
		Type  string `json:"type"`
		Text  string `json:"text"`
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Choices []struct {
				ID    string `json:"id"`
				Label string `json:"label"`
			} `json:"choices"`
		} `json:"items"`
	} `json:"question"`
	Conditions []struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		CommonName  string  `json:"common_name"`
		Probability float64 `json:"probability"`
	} `json:"conditions"`
	ShouldStop bool `json:"should_stop"`
}

type wireSpecialist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type triageResponse struct {
	TriageLevel           string          `json:"triage_level"`
	RecommendedChannel    string          `json:"recommended_channel"`
	RecommendedSpecialist *wireSpecialist `json:"recommended_specialist"`
	Serious               []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		CommonName  string `json:"common_name"`
		IsEmergency bool   `json:"is_emergency"`
	} `json:"serious"`
	RootCause string `json:"root_cause"`
}

type recommendSpecialistResponse struct {
	RecommendedSpecialist *wireSpecialist `json:"recommended_specialist"`
	RecommendedChannel    string          `json:"recommended_channel"`
}

const defaultChannel = "personal_visit"

func toWireEvidence(items []domain.EvidenceItem) []wireEvidence {
	out := make([]wireEvidence, 0, len(items))
	for _, item := range items {
		out = append(out, wireEvidence{
			ID:       item.ID,
			ChoiceID: string(item.Presence),
			Source:   item.Source.WireValue(),
		})
	}
	return out
}

func (r *parseResponse) findings() []domain.Finding {
	findings := make([]domain.Finding, 0, len(r.Mentions))
	for _, m := range r.Mentions {
		// negated mentions ("no fever") are not findings to route on
		if m.ChoiceID != "" && m.ChoiceID != string(domain.PresencePresent) {
			continue
		}
		common := m.CommonName
		if common == "" {
			common = m.Name
		}
		findings = append(findings, domain.Finding{ID: m.ID, Name: m.Name, CommonName: common})
	}
	return findings
}

func (r *triageResponse) result() (*domain.TriageResult, error) {
	level, err := domain.ParseUrgencyLevel(r.TriageLevel)
	if err != nil {
		return nil, err
	}

	channel := r.RecommendedChannel
	if channel == "" {
		channel = defaultChannel
	}

	serious := make([]domain.SeriousObservation, 0, len(r.Serious))
	for _, s := range r.Serious {
		serious = append(serious, domain.SeriousObservation{
			ID:          s.ID,
			Name:        s.Name,
			CommonName:  s.CommonName,
			IsEmergency: s.IsEmergency,
		})
	}

	return &domain.TriageResult{
		UrgencyLevel:        level,
		RecommendedChannel:  channel,
		SeriousObservations: serious,
		RootCause:           r.RootCause,
	}, nil
}

func (r *diagnosisResponse) result() *domain.DiagnosisResult {
	out := &domain.DiagnosisResult{
		ShouldStop: r.ShouldStop,
		Conditions: make([]domain.Condition, 0, len(r.Conditions)),
	}
	for _, c := range r.Conditions {
		common := c.CommonName
		if common == "" {
			common = c.Name
		}
		out.Conditions = append(out.Conditions, domain.Condition{
			ID:          c.ID,
			Name:        c.Name,
			CommonName:  common,
			Probability: c.Probability,
		})
	}

	if r.Question != nil && !r.ShouldStop {
		q := &domain.DiagnosticQuestion{
			Type: domain.ParseQuestionType(r.Question.Type),
			Text: strings.TrimSpace(r.Question.Text),
		}
		for _, item := range r.Question.Items {
			choices := make([]string, 0, len(item.Choices))
			for _, c := range item.Choices {
				choices = append(choices, c.ID)
			}
			q.Items = append(q.Items, domain.QuestionItem{ID: item.ID, Name: item.Name, Choices: choices})
		}
		out.Question = q
	}

	// no question left means the service has nothing more to ask
	if out.Question == nil {
		out.ShouldStop = true
	}
	return out
}
