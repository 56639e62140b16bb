package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Operation names used for breakers, metrics and errors
const (
	OpParse               = "parse"
	OpTriage              = "triage"
	OpRecommendSpecialist = "recommend_specialist"
	OpSuggest             = "suggest"
	OpDiagnosis           = "diagnosis"
)

// CallObserver receives one observation per decision-service call
type CallObserver interface {
	ObserveDecisionCall(operation, outcome string, duration time.Duration)
}

// ResilientDecisionService wraps a decision service with per-operation circuit
// breakers, per-call timeouts and a parse-result cache.
type ResilientDecisionService struct {
	client      domain.DecisionService
	cache       *ParseCache
	breakers    map[string]*gobreaker.CircuitBreaker
	callTimeout time.Duration
	observer    CallObserver
	logger      *logrus.Logger
}

// ResilienceOptions configures the wrapper
type ResilienceOptions struct {
	Breaker     domain.BreakerConfig
	CallTimeout time.Duration
	Cache       *ParseCache
	Observer    CallObserver
}

// NewResilientDecisionService creates a resilient wrapper around client
func NewResilientDecisionService(client domain.DecisionService, opts ResilienceOptions, logger *logrus.Logger) *ResilientDecisionService {
	if logger == nil {
		logger = logrus.New()
	}
	cfg := opts.Breaker
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 3
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.6
	}

	r := &ResilientDecisionService{
		client:      client,
		cache:       opts.Cache,
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
		callTimeout: opts.CallTimeout,
		observer:    opts.Observer,
		logger:      logger,
	}

	for _, op := range []string{OpParse, OpTriage, OpRecommendSpecialist, OpSuggest, OpDiagnosis} {
		r.breakers[op] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "decision." + op,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Circuit breaker state changed")
			},
			IsSuccessful: countsAsSuccess,
		})
	}

	return r
}

// countsAsSuccess keeps client-side mistakes and cancellations from tripping a breaker
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var ext *domain.ExternalServiceError
	if errors.As(err, &ext) {
		return !ext.Temporary()
	}
	return false
}

// Parse consults the cache before calling the service
func (r *ResilientDecisionService) Parse(ctx context.Context, text string, demographics domain.Demographics) ([]domain.Finding, error) {
	if r.cache != nil {
		if cached, found, err := r.cache.Get(ctx, text, demographics); err == nil && found {
			r.observe(OpParse, "cache_hit", 0)
			return cached, nil
		} else if err != nil {
			r.logger.WithError(err).Warn("Parse cache lookup failed")
		}
	}

	result, err := r.execute(ctx, OpParse, func(ctx context.Context) (interface{}, error) {
		return r.client.Parse(ctx, text, demographics)
	})
	if err != nil {
		return nil, err
	}
	findings := result.([]domain.Finding)

	if r.cache != nil {
		if err := r.cache.Set(ctx, text, demographics, findings, 0); err != nil {
			// Log cache error but don't fail the request
			r.logger.WithError(err).Warn("Failed to cache parse result")
		}
	}
	return findings, nil
}

func (r *ResilientDecisionService) Triage(ctx context.Context, evidence []domain.EvidenceItem, demographics domain.Demographics) (*domain.TriageResult, error) {
	result, err := r.execute(ctx, OpTriage, func(ctx context.Context) (interface{}, error) {
		return r.client.Triage(ctx, evidence, demographics)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.TriageResult), nil
}

func (r *ResilientDecisionService) RecommendSpecialist(ctx context.Context, evidence []domain.EvidenceItem, demographics domain.Demographics) (*domain.SpecialistRecommendation, error) {
	result, err := r.execute(ctx, OpRecommendSpecialist, func(ctx context.Context) (interface{}, error) {
		return r.client.RecommendSpecialist(ctx, evidence, demographics)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.SpecialistRecommendation), nil
}

func (r *ResilientDecisionService) Suggest(ctx context.Context, req domain.SuggestRequest) ([]domain.Suggestion, error) {
	result, err := r.execute(ctx, OpSuggest, func(ctx context.Context) (interface{}, error) {
		return r.client.Suggest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Suggestion), nil
}

func (r *ResilientDecisionService) Diagnosis(ctx context.Context, evidence []domain.EvidenceItem, demographics domain.Demographics, interviewID string) (*domain.DiagnosisResult, error) {
	result, err := r.execute(ctx, OpDiagnosis, func(ctx context.Context) (interface{}, error) {
		return r.client.Diagnosis(ctx, evidence, demographics, interviewID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.DiagnosisResult), nil
}

// BreakerStates returns the current state of every breaker
func (r *ResilientDecisionService) BreakerStates() map[string]gobreaker.State {
	states := make(map[string]gobreaker.State, len(r.breakers))
	for op, cb := range r.breakers {
		states[op] = cb.State()
	}
	return states
}

// Close releases the cache
func (r *ResilientDecisionService) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

func (r *ResilientDecisionService) execute(ctx context.Context, operation string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := r.breakers[operation].Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.observe(operation, "circuit_open", elapsed)
			return nil, domain.NewExternalServiceError(ServiceName, operation, 0,
				fmt.Errorf("%w: %v", domain.ErrCircuitOpen, err))
		}
		r.observe(operation, "error", elapsed)
		r.logger.WithFields(logrus.Fields{
			"operation": operation,
			"duration":  elapsed.String(),
		}).WithError(err).Warn("Decision service call failed")

		if domain.IsExternalServiceError(err) {
			return nil, err
		}
		return nil, domain.NewExternalServiceError(ServiceName, operation, 0, err)
	}

	r.observe(operation, "success", elapsed)
	return result, nil
}

func (r *ResilientDecisionService) observe(operation, outcome string, d time.Duration) {
	if r.observer != nil {
		r.observer.ObserveDecisionCall(operation, outcome, d)
	}
}
