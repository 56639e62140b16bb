package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adult = domain.Demographics{Age: 42, Sex: domain.SexFemale}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *DecisionClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewDecisionClient(DecisionClientConfig{
		BaseURL:   server.URL,
		AppID:     "test-app",
		AppKey:    "test-key",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	}, quietLogger())
	require.NoError(t, err)
	return client
}

func TestNewDecisionClient_MissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		config  DecisionClientConfig
		setting string
	}{
		{"missing app id", DecisionClientConfig{AppKey: "k"}, "decision.app_id"},
		{"missing app key", DecisionClientConfig{AppID: "id"}, "decision.app_key"},
		{"blank app id", DecisionClientConfig{AppID: "  ", AppKey: "k"}, "decision.app_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewDecisionClient(tt.config, nil)
			assert.Nil(t, client)

			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.setting, cfgErr.Setting)
		})
	}
}

func TestDecisionClient_Parse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-app", r.Header.Get("App-Id"))
		assert.Equal(t, "test-key", r.Header.Get("App-Key"))
		assert.Empty(t, r.Header.Get("Interview-Id"))

		var req parseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "headache and no fever", req.Text)
		assert.Equal(t, 42, req.Age.Value)
		assert.Equal(t, "female", req.Sex)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"mentions":[
			{"id":"s_21","name":"Headache","common_name":"Headache","choice_id":"present"},
			{"id":"s_98","name":"Fever","common_name":"Fever","choice_id":"absent"},
			{"id":"s_1193","name":"Nausea","choice_id":"present"}
		],"obvious":true}`))
	})

	findings, err := client.Parse(context.Background(), "headache and no fever", adult)
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, domain.Finding{ID: "s_21", Name: "Headache", CommonName: "Headache"}, findings[0])
	assert.Equal(t, "Nausea", findings[1].CommonName, "common name falls back to name")
}

func TestDecisionClient_Triage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/triage", r.URL.Path)

		var req evidenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Evidence, 2)
		assert.Equal(t, wireEvidence{ID: "s_21", ChoiceID: "present", Source: "initial"}, req.Evidence[0])
		assert.Equal(t, wireEvidence{ID: "p_28", ChoiceID: "absent", Source: "suggest"}, req.Evidence[1])

		_, _ = w.Write([]byte(`{"triage_level":"emergency","serious":[{"id":"s_50","name":"Chest pain","common_name":"Chest pain","is_emergency":true}],"root_cause":"s_50"}`))
	})

	evidence := []domain.EvidenceItem{
		{ID: "s_21", Presence: domain.PresencePresent, Source: domain.SourceInitial},
		{ID: "p_28", Presence: domain.PresenceAbsent, Source: domain.SourceSuggested},
	}
	result, err := client.Triage(context.Background(), evidence, adult)
	require.NoError(t, err)
	assert.Equal(t, domain.EMERGENCY, result.UrgencyLevel)
	assert.Equal(t, "personal_visit", result.RecommendedChannel)
	require.Len(t, result.SeriousObservations, 1)
	assert.True(t, result.SeriousObservations[0].IsEmergency)
	assert.Equal(t, "s_50", result.RootCause)
}

func TestDecisionClient_TriageUnknownLevel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"triage_level":"walk_in"}`))
	})

	_, err := client.Triage(context.Background(), nil, adult)
	require.Error(t, err)
	assert.True(t, domain.IsExternalServiceError(err))
	assert.ErrorIs(t, err, domain.ErrInvalidUrgencyLevel)
}

func TestDecisionClient_RecommendSpecialist(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected *domain.SpecialistRecommendation
		wantErr  bool
	}{
		{
			name:     "known id with name",
			body:     `{"recommended_specialist":{"id":"sp_2","name":"Cardiologist"},"recommended_channel":"personal_visit"}`,
			expected: &domain.SpecialistRecommendation{ID: "sp_2", Name: "Cardiologist", Category: "Cardiology"},
		},
		{
			name:     "known id without name",
			body:     `{"recommended_specialist":{"id":"sp_17"}}`,
			expected: &domain.SpecialistRecommendation{ID: "sp_17", Name: "Neurologist", Category: "Neurology"},
		},
		{
			name:     "unknown id",
			body:     `{"recommended_specialist":{"id":"sp_99","name":"Allergist"}}`,
			expected: &domain.SpecialistRecommendation{ID: "sp_99", Name: "Allergist", Category: "General"},
		},
		{
			name:    "missing specialist",
			body:    `{"recommended_channel":"personal_visit"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/recommend_specialist", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})

			rec, err := client.RecommendSpecialist(context.Background(), nil, adult)
			if tt.wantErr {
				assert.True(t, domain.IsExternalServiceError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rec)
		})
	}
}

func TestDecisionClient_Suggest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/suggest", r.URL.Path)
		assert.Equal(t, "abc123", r.Header.Get("Interview-Id"))

		var req suggestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "red_flags", req.SuggestMethod)

		_, _ = w.Write([]byte(`[{"id":"s_1","name":"Fainting","common_name":"Passing out"}]`))
	})

	out, err := client.Suggest(context.Background(), domain.SuggestRequest{
		Demographics: adult,
		Method:       domain.SuggestRedFlags,
		InterviewID:  "abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Suggestion{{ID: "s_1", Name: "Fainting", CommonName: "Passing out"}}, out)
}

func TestDecisionClient_Diagnosis(t *testing.T) {
	t.Run("question", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/diagnosis", r.URL.Path)
			assert.Equal(t, "iv-1", r.Header.Get("Interview-Id"))
			_, _ = w.Write([]byte(`{
				"question":{"type":"group_single","text":" Which describes your pain? ","items":[
					{"id":"s_10","name":"Sharp","choices":[{"id":"present","label":"Yes"},{"id":"absent","label":"No"}]},
					{"id":"s_11","name":"Dull","choices":[{"id":"present","label":"Yes"}]}
				]},
				"conditions":[{"id":"c_1","name":"Migraine","common_name":"","probability":0.4}],
				"should_stop":false}`))
		})

		result, err := client.Diagnosis(context.Background(), nil, adult, "iv-1")
		require.NoError(t, err)
		assert.False(t, result.ShouldStop)
		require.NotNil(t, result.Question)
		assert.Equal(t, domain.QuestionGroup, result.Question.Type)
		assert.Equal(t, "Which describes your pain?", result.Question.Text)
		require.Len(t, result.Question.Items, 2)
		assert.Equal(t, []string{"present", "absent"}, result.Question.Items[0].Choices)
		assert.Equal(t, "Migraine", result.Conditions[0].CommonName)
	})

	t.Run("stop", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"question":null,"conditions":[{"id":"c_1","name":"Tension headache","common_name":"Tension headache","probability":0.81}],"should_stop":true}`))
		})

		result, err := client.Diagnosis(context.Background(), nil, adult, "")
		require.NoError(t, err)
		assert.True(t, result.ShouldStop)
		assert.Nil(t, result.Question)
		require.Len(t, result.Conditions, 1)
		assert.InDelta(t, 0.81, result.Conditions[0].Probability, 1e-9)
	})

	t.Run("missing question is a stop", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"conditions":[]}`))
		})

		result, err := client.Diagnosis(context.Background(), nil, adult, "")
		require.NoError(t, err)
		assert.True(t, result.ShouldStop)
	})
}

func TestDecisionClient_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"maintenance"}`))
	})

	_, err := client.Parse(context.Background(), "cough", adult)
	require.Error(t, err)

	var ext *domain.ExternalServiceError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, http.StatusServiceUnavailable, ext.StatusCode)
	assert.Equal(t, "parse", ext.Operation)
	assert.True(t, ext.Temporary())
	assert.Contains(t, err.Error(), "maintenance")
}

func TestDecisionClient_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := client.Diagnosis(context.Background(), nil, adult, "")
	assert.True(t, domain.IsExternalServiceError(err))
}

func TestDecisionClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Suggest(ctx, domain.SuggestRequest{Demographics: adult, Method: domain.SuggestSymptoms})
	require.Error(t, err)
	assert.True(t, domain.IsExternalServiceError(err))
}

func TestSpecialistByID(t *testing.T) {
	assert.Equal(t, "General Practitioner", SpecialistByID("sp_1").Name)
	assert.Equal(t, "Pediatrics", SpecialistByID("sp_11").Category)
	assert.Equal(t, "Psychiatrist", SpecialistByID("sp_15").Name)
	assert.Equal(t, domain.SpecialistRecommendation{ID: "sp_42", Name: "Specialist", Category: "General"}, SpecialistByID("sp_42"))
}
