package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ServiceName identifies the decision service in errors and metrics
const ServiceName = "decision"

// DefaultDecisionBaseURL is the public Infermedica v3 endpoint
const DefaultDecisionBaseURL = "https://api.infermedica.com/v3"

// DecisionClient talks to the clinical decision service over HTTP
type DecisionClient struct {
	baseURL    string
	appID      string
	appKey     string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	logger     *logrus.Logger
}

// DecisionClientConfig represents configuration for the decision service client
type DecisionClientConfig struct {
	BaseURL   string        `json:"base_url"`
	AppID     string        `json:"app_id"`
	AppKey    string        `json:"app_key"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per second
}

// DecisionClientConfigFrom converts the application config section
func DecisionClientConfigFrom(cfg domain.DecisionConfig) DecisionClientConfig {
	return DecisionClientConfig{
		BaseURL:   cfg.BaseURL,
		AppID:     cfg.AppID,
		AppKey:    cfg.AppKey,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	}
}

// NewDecisionClient creates a decision service client. Missing credentials are a
// ConfigurationError.
func NewDecisionClient(config DecisionClientConfig, logger *logrus.Logger) (*DecisionClient, error) {
	if strings.TrimSpace(config.AppID) == "" {
		return nil, domain.NewConfigurationError("decision.app_id", "decision service app id is required (set CARE_ROUTER_DECISION_APP_ID or INFERMEDICA_APP_ID)")
	}
	if strings.TrimSpace(config.AppKey) == "" {
		return nil, domain.NewConfigurationError("decision.app_key", "decision service app key is required (set CARE_ROUTER_DECISION_APP_KEY or INFERMEDICA_APP_KEY)")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultDecisionBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &DecisionClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		appID:   config.AppID,
		appKey:  config.AppKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:    logger,
	}, nil
}

// Parse extracts findings from free text
func (c *DecisionClient) Parse(ctx context.Context, text string, demographics domain.Demographics) ([]domain.Finding, error) {
	req := parseRequest{
		Text: text,
		Age:  wireAge{Value: demographics.Age},
		Sex:  string(demographics.Sex),
	}

	var resp parseResponse
	if err := c.post(ctx, "parse", "/parse", "", req, &resp); err != nil {
		return nil, err
	}

	findings := resp.findings()
	c.logger.WithFields(logrus.Fields{
		"mentions": len(resp.Mentions),
		"findings": len(findings),
	}).Debug("Parsed symptom text")
	return findings, nil
}

// Triage classifies the urgency of the evidence
func (c *DecisionClient) Triage(ctx context.Context, evidence []domain.EvidenceItem, demographics domain.Demographics) (*domain.TriageResult, error) {
	req := evidenceRequest{
		Sex:      string(demographics.Sex),
		Age:      wireAge{Value: demographics.Age},
		Evidence: toWireEvidence(evidence),
	}

	var resp triageResponse
	if err := c.post(ctx, "triage", "/triage", "", req, &resp); err != nil {
		return nil, err
	}

	result, err := resp.result()
	if err != nil {
		return nil, domain.NewExternalServiceError(ServiceName, "triage", 0, err)
	}
	return result, nil
}

// RecommendSpecialist returns the provider category best suited to the evidence
func (c *DecisionClient) RecommendSpecialist(ctx context.Context, evidence []domain.EvidenceItem, demographics domain.Demographics) (*domain.SpecialistRecommendation, error) {
	req := evidenceRequest{
		Sex:      string(demographics.Sex),
		Age:      wireAge{Value: demographics.Age},
		Evidence: toWireEvidence(evidence),
	}

	var resp recommendSpecialistResponse
	if err := c.post(ctx, "recommend_specialist", "/recommend_specialist", "", req, &resp); err != nil {
		return nil, err
	}

	rec := specialistFromWire(resp.RecommendedSpecialist)
	if rec == nil {
		return nil, domain.NewExternalServiceError(ServiceName, "recommend_specialist", 0,
			fmt.Errorf("response did not include a recommended specialist"))
	}
	return rec, nil
}

// Suggest returns candidate findings for manual adjudication
func (c *DecisionClient) Suggest(ctx context.Context, in domain.SuggestRequest) ([]domain.Suggestion, error) {
	req := suggestRequest{
		Sex:           string(in.Demographics.Sex),
		Age:           wireAge{Value: in.Demographics.Age},
		Evidence:      toWireEvidence(in.Evidence),
		SuggestMethod: string(in.Method),
	}

	var resp []suggestItem
	if err := c.post(ctx, "suggest", "/suggest", in.InterviewID, req, &resp); err != nil {
		return nil, err
	}

	suggestions := make([]domain.Suggestion, 0, len(resp))
	for _, item := range resp {
		suggestions = append(suggestions, domain.Suggestion{ID: item.ID, Name: item.Name, CommonName: item.CommonName})
	}
	return suggestions, nil
}

// Diagnosis asks for the next interview question or the final condition ranking
func (c *DecisionClient) Diagnosis(ctx context.Context, evidence []domain.EvidenceItem, demographics domain.Demographics, interviewID string) (*domain.DiagnosisResult, error) {
	req := diagnosisRequest{
		Sex:      string(demographics.Sex),
		Age:      wireAge{Value: demographics.Age},
		Evidence: toWireEvidence(evidence),
	}

	var resp diagnosisResponse
	if err := c.post(ctx, "diagnosis", "/diagnosis", interviewID, req, &resp); err != nil {
		return nil, err
	}
	return resp.result(), nil
}

// post sends one JSON request and decodes the JSON response into out
func (c *DecisionClient) post(ctx context.Context, operation, path, interviewID string, body, out any) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return domain.NewExternalServiceError(ServiceName, operation, 0, fmt.Errorf("rate limit wait failed: %w", err))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("App-Id", c.appID)
	req.Header.Set("App-Key", c.appKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if interviewID != "" {
		req.Header.Set("Interview-Id", interviewID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewExternalServiceError(ServiceName, operation, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.NewExternalServiceError(ServiceName, operation, resp.StatusCode,
			fmt.Errorf("decision service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewExternalServiceError(ServiceName, operation, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
