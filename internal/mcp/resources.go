package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs
const (
	SpecialtiesURI          = "care://specialties"
	AlternativesURITemplate = "care://alternatives/{urgency_level}"
	alternativesURIPrefix   = "care://alternatives/"
	jsonMIMEType            = "application/json"
)

// specialtiesView is the body of the specialties resource
type specialtiesView struct {
	Specialties   []domain.Specialty    `json:"specialties"`
	UrgencyLevels []domain.UrgencyLevel `json:"urgency_levels"`
}

// alternativesView is the body of one alternatives resource
type alternativesView struct {
	UrgencyLevel domain.UrgencyLevel      `json:"urgency_level"`
	Alternatives []domain.AlternativeCare `json:"alternatives"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         SpecialtiesURI,
		Name:        "specialties",
		Description: "Specialties the directory can book and the urgency levels triage can return",
		MIMEType:    jsonMIMEType,
	}, s.readSpecialties)

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: AlternativesURITemplate,
		Name:        "alternative_care",
		Description: "Alternative care options with their appropriateness for one urgency level",
		MIMEType:    jsonMIMEType,
	}, s.readAlternatives)
}

func (s *Server) readSpecialties(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, specialtiesView{
		Specialties:   domain.AllSpecialties(),
		UrgencyLevels: domain.AllUrgencyLevels(),
	})
}

func (s *Server) readAlternatives(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	raw, ok := strings.CutPrefix(uri, alternativesURIPrefix)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	level, err := domain.ParseUrgencyLevel(raw)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return jsonResource(uri, alternativesView{
		UrgencyLevel: level,
		Alternatives: pipeline.AllAlternatives(level),
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		}},
	}, nil
}
