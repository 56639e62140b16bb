package mcp

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/care-router-mcp-server/internal/directory"
	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/logging"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday morning, before any simulated slot
var testNow = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

type stubDecision struct {
	findings  []domain.Finding
	level     domain.UrgencyLevel
	triageErr error
}

func (d *stubDecision) Parse(context.Context, string, domain.Demographics) ([]domain.Finding, error) {
	return d.findings, nil
}

func (d *stubDecision) Triage(context.Context, []domain.EvidenceItem, domain.Demographics) (*domain.TriageResult, error) {
	if d.triageErr != nil {
		return nil, d.triageErr
	}
	return &domain.TriageResult{UrgencyLevel: d.level, RecommendedChannel: "personal_visit"}, nil
}

func (d *stubDecision) RecommendSpecialist(context.Context, []domain.EvidenceItem, domain.Demographics) (*domain.SpecialistRecommendation, error) {
	return &domain.SpecialistRecommendation{ID: "sp_3", Name: "Dermatologist", Category: "Dermatology"}, nil
}

func (d *stubDecision) Suggest(context.Context, domain.SuggestRequest) ([]domain.Suggestion, error) {
	return nil, nil
}

func (d *stubDecision) Diagnosis(context.Context, []domain.EvidenceItem, domain.Demographics, string) (*domain.DiagnosisResult, error) {
	return &domain.DiagnosisResult{ShouldStop: true}, nil
}

func newTestServer(decision domain.DecisionService) *Server {
	logger := logging.Discard()
	clock := func() time.Time { return testNow }
	sim := directory.NewSimulator(7, clock, logger)
	optimizer := pipeline.NewOptimizer(decision, sim, pipeline.Options{Clock: clock}, logger)
	return NewServer(optimizer, sim, 0, logger)
}

func TestRouteAppointments(t *testing.T) {
	s := newTestServer(&stubDecision{
		findings: []domain.Finding{{ID: "s_241", Name: "Skin lesions", CommonName: "Skin changes"}},
		level:    domain.CONSULTATION,
	})

	_, out, err := s.RouteAppointments(t.Context(), &mcp.CallToolRequest{}, InputRouteAppointments{
		Age: 34, Sex: "Female", SymptomText: "itchy rash on my arm",
	})
	require.NoError(t, err)

	assert.Equal(t, "consultation", out.UrgencyLevel)
	assert.Equal(t, "Dermatologist", out.Specialist)
	assert.Equal(t, "Dermatology", out.Specialty)
	assert.Equal(t, []string{"Skin changes"}, out.ParsedSymptoms)
	require.NotEmpty(t, out.Appointments)
	assert.LessOrEqual(t, len(out.Appointments), pipeline.DefaultMaxResults)
	for i, a := range out.Appointments {
		assert.True(t, a.Slot.Available)
		assert.NotEmpty(t, a.Reasoning)
		if i > 0 {
			assert.GreaterOrEqual(t, out.Appointments[i-1].TotalScore, a.TotalScore)
		}
		_, err := time.Parse(time.RFC3339, a.Slot.StartTime)
		assert.NoError(t, err)
	}
	assert.Equal(t, "Telemedicine", out.AlternativeCare[0].Name)
}

func TestRouteAppointmentsErrors(t *testing.T) {
	tests := []struct {
		name     string
		decision *stubDecision
		input    InputRouteAppointments
		contains string
	}{
		{
			name:     "invalid sex",
			decision: &stubDecision{},
			input:    InputRouteAppointments{Age: 30, Sex: "x", SymptomText: "cough"},
			contains: "invalid sex",
		},
		{
			name:     "empty text",
			decision: &stubDecision{},
			input:    InputRouteAppointments{Age: 30, Sex: "male"},
			contains: "symptom text is required",
		},
		{
			name: "decision service failure",
			decision: &stubDecision{
				findings:  []domain.Finding{{ID: "s_1"}},
				triageErr: domain.NewExternalServiceError("decision", "triage", http.StatusBadGateway, errors.New("bad gateway")),
			},
			input:    InputRouteAppointments{Age: 30, Sex: "male", SymptomText: "cough"},
			contains: "clinical service unavailable, please retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.decision)
			_, _, err := s.RouteAppointments(t.Context(), &mcp.CallToolRequest{}, tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestFindSlots(t *testing.T) {
	s := newTestServer(&stubDecision{})
	ctx := t.Context()

	_, all, err := s.FindSlots(ctx, &mcp.CallToolRequest{}, InputFindSlots{Specialty: "cardiology", DaysAhead: 3})
	require.NoError(t, err)
	require.NotZero(t, all.Count)
	assert.Len(t, all.Slots, all.Count)
	for _, slot := range all.Slots {
		assert.Equal(t, "Cardiology", slot.Specialty)
	}

	_, followUps, err := s.FindSlots(ctx, &mcp.CallToolRequest{}, InputFindSlots{Specialty: "Cardiology", DaysAhead: 3, Kind: "Follow-up"})
	require.NoError(t, err)
	for _, slot := range followUps.Slots {
		assert.Equal(t, "Follow-up", slot.Kind)
	}
	assert.Equal(t, all.Count, followUps.Count, "a kind filter re-labels the same generated times")

	_, urgent, err := s.FindSlots(ctx, &mcp.CallToolRequest{}, InputFindSlots{UrgentOnly: true})
	require.NoError(t, err)
	for _, slot := range urgent.Slots {
		assert.Equal(t, "Urgent Care", slot.Kind)
		assert.True(t, slot.Available)
	}

	_, _, err = s.FindSlots(ctx, &mcp.CallToolRequest{}, InputFindSlots{Specialty: "Oncology"})
	assert.ErrorIs(t, err, domain.ErrInvalidSpecialty)

	_, _, err = s.FindSlots(ctx, &mcp.CallToolRequest{}, InputFindSlots{Kind: "House Call"})
	assert.Error(t, err)
}

func TestListAlternativeCare(t *testing.T) {
	s := newTestServer(&stubDecision{})

	_, out, err := s.ListAlternativeCare(t.Context(), &mcp.CallToolRequest{}, InputListAlternativeCare{UrgencyLevel: "EMERGENCY"})
	require.NoError(t, err)
	assert.Equal(t, "emergency", out.UrgencyLevel)
	assert.Equal(t, pipeline.AllAlternatives(domain.EMERGENCY), out.Alternatives)

	_, _, err = s.ListAlternativeCare(t.Context(), &mcp.CallToolRequest{}, InputListAlternativeCare{UrgencyLevel: "soonish"})
	assert.ErrorIs(t, err, domain.ErrInvalidUrgencyLevel)
}

func TestToolsOverInMemoryTransport(t *testing.T) {
	ctx := t.Context()
	s := newTestServer(&stubDecision{})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
		assert.NotNil(t, tool.InputSchema)
	}
	assert.ElementsMatch(t, []string{"route_appointments", "find_slots", "list_alternative_care"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "list_alternative_care",
		Arguments: map[string]any{"urgency_level": "self_care"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.NotNil(t, res.StructuredContent)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "list_alternative_care",
		Arguments: map[string]any{"urgency_level": "later"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
