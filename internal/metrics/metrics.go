// Package metrics exposes the service's prometheus collectors
package metrics

import (
	"net/http"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "care_router"

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	pipelineRuns         *prometheus.CounterVec
	pipelineDuration     prometheus.Histogram
	decisionCalls        *prometheus.CounterVec
	decisionCallDuration *prometheus.HistogramVec
	interviewTransitions *prometheus.CounterVec
	rankedSlots          prometheus.Histogram
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Optimization pipeline runs by outcome.",
		}, []string{"outcome"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of optimization pipeline runs.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		decisionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_calls_total",
			Help:      "Decision service calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		decisionCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_call_duration_seconds",
			Help:      "Latency of decision service calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		interviewTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_transitions_total",
			Help:      "Interview stage transitions by target stage.",
		}, []string{"stage"}),
		rankedSlots: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranked_slots",
			Help:      "Number of appointment slots returned per pipeline run.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pipelineRuns,
		m.pipelineDuration,
		m.decisionCalls,
		m.decisionCallDuration,
		m.interviewTransitions,
		m.rankedSlots,
	)
	return m
}

// ObservePipeline records one pipeline run
func (m *Metrics) ObservePipeline(outcome string, duration time.Duration, ranked int) {
	m.pipelineRuns.WithLabelValues(outcome).Inc()
	m.pipelineDuration.Observe(duration.Seconds())
	if outcome == "success" {
		m.rankedSlots.Observe(float64(ranked))
	}
}

// ObserveDecisionCall records one decision-service call. Cache hits and open
// breakers are counted but do not contribute latency.
func (m *Metrics) ObserveDecisionCall(operation, outcome string, duration time.Duration) {
	m.decisionCalls.WithLabelValues(operation, outcome).Inc()
	if outcome == "success" || outcome == "error" {
		m.decisionCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// ObserveTransition records an interview stage change
func (m *Metrics) ObserveTransition(to domain.Stage) {
	m.interviewTransitions.WithLabelValues(string(to)).Inc()
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
