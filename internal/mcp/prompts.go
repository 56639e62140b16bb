package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SymptomIntakePrompt is the name of the intake prompt
const SymptomIntakePrompt = "symptom_intake"

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        SymptomIntakePrompt,
		Description: "Guides an assistant through collecting symptoms and routing the patient to an appointment",
		Arguments: []*mcp.PromptArgument{
			{Name: "symptoms", Description: "The patient's own description of their symptoms", Required: true},
			{Name: "age", Description: "Patient age in years"},
			{Name: "sex", Description: "male or female"},
		},
	}, s.symptomIntake)
}

func (s *Server) symptomIntake(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	symptoms := strings.TrimSpace(args["symptoms"])
	if symptoms == "" {
		return nil, fmt.Errorf("argument %q is required", "symptoms")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A patient describes their symptoms as: %q.\n\n", symptoms)

	age, sex := strings.TrimSpace(args["age"]), strings.TrimSpace(args["sex"])
	switch {
	case age != "" && sex != "":
		fmt.Fprintf(&b, "They are %s years old and %s.\n", age, sex)
	default:
		b.WriteString("Ask for the patient's age and sex before routing; both are required.\n")
	}

	b.WriteString(`
1. Call route_appointments with the age, sex and symptom text.
2. If the urgency level is emergency or emergency_ambulance, tell the patient to seek emergency care now before anything else.
3. Otherwise present the top ranked appointments with their reasoning, then the recommended alternative care options.
4. Do not offer a diagnosis. The routing result is guidance on where to be seen, not a clinical opinion.
`)

	return &mcp.GetPromptResult{
		Description: "Symptom intake and appointment routing",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: b.String()},
		}},
	}, nil
}
