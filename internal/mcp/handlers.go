package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// MetadataRouteAppointments describes the route_appointments tool.
var MetadataRouteAppointments = &mcp.Tool{
	Name: "route_appointments",
	Description: "Triage free-text symptoms and rank bookable appointment slots. " +
		"Returns the urgency level, the recommended specialist, up to five scored slots with " +
		"reasoning, and the alternative care options suited to the urgency.",
}

// MetadataFindSlots describes the find_slots tool.
var MetadataFindSlots = &mcp.Tool{
	Name:        "find_slots",
	Description: "List appointment slots from the scheduling directory, optionally filtered by specialty and visit kind.",
}

// MetadataListAlternativeCare describes the list_alternative_care tool.
var MetadataListAlternativeCare = &mcp.Tool{
	Name:        "list_alternative_care",
	Description: "List non-appointment care options with cost ranges, flagging those recommended for an urgency level.",
}

// InputRouteAppointments is the input for the route_appointments tool.
type InputRouteAppointments struct {
	Age         int    `json:"age" jsonschema:"patient age in years, 0-130"`
	Sex         string `json:"sex" jsonschema:"male or female"`
	SymptomText string `json:"symptom_text" jsonschema:"free-text description of the symptoms"`
}

// SlotView is an appointment slot flattened for tool output.
type SlotView struct {
	SlotID          string  `json:"slot_id"`
	ProviderID      string  `json:"provider_id"`
	ProviderName    string  `json:"provider_name"`
	Specialty       string  `json:"specialty"`
	Location        string  `json:"location"`
	Rating          float64 `json:"rating"`
	StartTime       string  `json:"start_time"`
	Kind            string  `json:"kind"`
	DurationMinutes int     `json:"duration_minutes"`
	EstimatedCost   int     `json:"estimated_cost"`
	Available       bool    `json:"available"`
}

// RankedSlot is a scored slot with its explanation.
type RankedSlot struct {
	Slot       SlotView `json:"slot"`
	TotalScore float64  `json:"total_score"`
	Reasoning  []string `json:"reasoning"`
}

// OutputRouteAppointments is the output for the route_appointments tool.
type OutputRouteAppointments struct {
	UrgencyLevel       string                   `json:"urgency_level"`
	RecommendedChannel string                   `json:"recommended_channel"`
	Specialist         string                   `json:"specialist"`
	Specialty          string                   `json:"specialty"`
	SpecialistFallback bool                     `json:"specialist_fallback"`
	ParsedSymptoms     []string                 `json:"parsed_symptoms"`
	Appointments       []RankedSlot             `json:"appointments"`
	AlternativeCare    []domain.AlternativeCare `json:"alternative_care"`
}

// InputFindSlots is the input for the find_slots tool.
type InputFindSlots struct {
	Specialty  string `json:"specialty,omitempty" jsonschema:"provider specialty, e.g. Cardiology; empty for all"`
	Kind       string `json:"kind,omitempty" jsonschema:"visit kind, e.g. New Patient or Urgent Care; empty for all"`
	DaysAhead  int    `json:"days_ahead,omitempty" jsonschema:"search window in days; defaults to the configured window"`
	UrgentOnly bool   `json:"urgent_only,omitempty" jsonschema:"only available urgent-care slots in the next two days"`
}

// OutputFindSlots is the output for the find_slots tool.
type OutputFindSlots struct {
	Count int        `json:"count"`
	Slots []SlotView `json:"slots"`
}

// InputListAlternativeCare is the input for the list_alternative_care tool.
type InputListAlternativeCare struct {
	UrgencyLevel string `json:"urgency_level" jsonschema:"one of emergency_ambulance, emergency, consultation_24, consultation, self_care"`
}

// OutputListAlternativeCare is the output for the list_alternative_care tool.
type OutputListAlternativeCare struct {
	UrgencyLevel string                   `json:"urgency_level"`
	Alternatives []domain.AlternativeCare `json:"alternatives"`
}

// RouteAppointments runs the optimization pipeline for free-text symptoms.
func (s *Server) RouteAppointments(ctx context.Context, _ *mcp.CallToolRequest, input InputRouteAppointments) (*mcp.CallToolResult, OutputRouteAppointments, error) {
	sex, err := domain.ParseSex(input.Sex)
	if err != nil {
		return nil, OutputRouteAppointments{}, err
	}

	result, err := s.optimizer.Optimize(ctx, pipeline.Request{Age: input.Age, Sex: sex, SymptomText: input.SymptomText})
	if err != nil {
		s.logger.WithField("tool", MetadataRouteAppointments.Name).WithError(err).Warn("Tool call failed")
		return nil, OutputRouteAppointments{}, toolError(err)
	}

	out := OutputRouteAppointments{
		UrgencyLevel:       string(result.Triage.UrgencyLevel),
		RecommendedChannel: result.Triage.RecommendedChannel,
		Specialist:         result.Specialist.Name,
		Specialty:          string(result.Specialty),
		SpecialistFallback: result.SpecialistFallback,
		ParsedSymptoms:     make([]string, 0, len(result.ParsedSymptoms)),
		Appointments:       make([]RankedSlot, 0, len(result.RankedAppointments)),
		AlternativeCare:    result.AlternativeCareOptions,
	}
	for _, f := range result.ParsedSymptoms {
		name := f.CommonName
		if name == "" {
			name = f.Name
		}
		out.ParsedSymptoms = append(out.ParsedSymptoms, name)
	}
	for _, scored := range result.RankedAppointments {
		out.Appointments = append(out.Appointments, RankedSlot{
			Slot:       viewSlot(scored.Slot),
			TotalScore: scored.TotalScore,
			Reasoning:  scored.Reasoning,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"tool":         MetadataRouteAppointments.Name,
		"urgency":      out.UrgencyLevel,
		"appointments": len(out.Appointments),
	}).Info("Tool call completed")
	return nil, out, nil
}

// FindSlots queries the scheduling directory.
func (s *Server) FindSlots(ctx context.Context, _ *mcp.CallToolRequest, input InputFindSlots) (*mcp.CallToolResult, OutputFindSlots, error) {
	var specialty *domain.Specialty
	if strings.TrimSpace(input.Specialty) != "" {
		parsed, err := domain.ParseSpecialty(input.Specialty)
		if err != nil {
			return nil, OutputFindSlots{}, err
		}
		specialty = &parsed
	}

	var (
		slots []domain.AppointmentSlot
		err   error
	)
	if input.UrgentOnly {
		slots, err = s.directory.QueryUrgentSlots(ctx, specialty)
	} else {
		query := domain.SlotQuery{Specialty: specialty, DaysAhead: input.DaysAhead}
		if query.DaysAhead <= 0 {
			query.DaysAhead = s.daysAhead
		}
		if input.Kind != "" {
			kind := domain.AppointmentKind(input.Kind)
			if !kind.IsValid() {
				return nil, OutputFindSlots{}, fmt.Errorf("unknown appointment kind %q", input.Kind)
			}
			query.Kind = &kind
		}
		slots, err = s.directory.QuerySlots(ctx, query)
	}
	if err != nil {
		return nil, OutputFindSlots{}, toolError(err)
	}

	out := OutputFindSlots{Count: len(slots), Slots: make([]SlotView, 0, len(slots))}
	for _, slot := range slots {
		out.Slots = append(out.Slots, viewSlot(slot))
	}
	return nil, out, nil
}

// ListAlternativeCare returns the alternative care table for an urgency level.
func (s *Server) ListAlternativeCare(_ context.Context, _ *mcp.CallToolRequest, input InputListAlternativeCare) (*mcp.CallToolResult, OutputListAlternativeCare, error) {
	level, err := domain.ParseUrgencyLevel(input.UrgencyLevel)
	if err != nil {
		return nil, OutputListAlternativeCare{}, err
	}
	return nil, OutputListAlternativeCare{
		UrgencyLevel: string(level),
		Alternatives: pipeline.AllAlternatives(level),
	}, nil
}

func viewSlot(slot domain.AppointmentSlot) SlotView {
	return SlotView{
		SlotID:          slot.ID,
		ProviderID:      slot.Provider.ID,
		ProviderName:    slot.Provider.Name,
		Specialty:       string(slot.Provider.Specialty),
		Location:        slot.Provider.Location,
		Rating:          slot.Provider.Rating,
		StartTime:       slot.StartTime.Format(time.RFC3339),
		Kind:            string(slot.Kind),
		DurationMinutes: slot.DurationMinutes,
		EstimatedCost:   slot.EstimatedCost,
		Available:       slot.IsAvailable,
	}
}

// toolError hides upstream detail behind the same retry message the HTTP API uses
func toolError(err error) error {
	if domain.IsExternalServiceError(err) {
		return fmt.Errorf("clinical service unavailable, please retry: %w", err)
	}
	return err
}
