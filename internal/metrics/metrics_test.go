package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePipeline(t *testing.T) {
	m := New()

	m.ObservePipeline("success", 120*time.Millisecond, 5)
	m.ObservePipeline("success", 80*time.Millisecond, 3)
	m.ObservePipeline("validation_error", time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pipelineRuns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pipelineRuns.WithLabelValues("validation_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rankedSlots))

	expected := `
# HELP care_router_ranked_slots Number of appointment slots returned per pipeline run.
# TYPE care_router_ranked_slots histogram
care_router_ranked_slots_bucket{le="0"} 0
care_router_ranked_slots_bucket{le="1"} 0
care_router_ranked_slots_bucket{le="2"} 0
care_router_ranked_slots_bucket{le="3"} 1
care_router_ranked_slots_bucket{le="5"} 2
care_router_ranked_slots_bucket{le="10"} 2
care_router_ranked_slots_bucket{le="20"} 2
care_router_ranked_slots_bucket{le="+Inf"} 2
care_router_ranked_slots_sum 8
care_router_ranked_slots_count 2
`
	require.NoError(t, testutil.CollectAndCompare(m.rankedSlots, strings.NewReader(expected)))
}

func TestObserveDecisionCall(t *testing.T) {
	m := New()

	m.ObserveDecisionCall("parse", "success", 200*time.Millisecond)
	m.ObserveDecisionCall("parse", "cache_hit", 0)
	m.ObserveDecisionCall("triage", "circuit_open", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisionCalls.WithLabelValues("parse", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisionCalls.WithLabelValues("parse", "cache_hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisionCalls.WithLabelValues("triage", "circuit_open")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.decisionCallDuration), "only real calls record latency")
}

func TestObserveTransition(t *testing.T) {
	m := New()
	m.ObserveTransition(domain.STAGE_RISK_FACTORS)
	m.ObserveTransition(domain.STAGE_RISK_FACTORS)
	m.ObserveTransition(domain.STAGE_COMPLETE)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.interviewTransitions.WithLabelValues("RISK_FACTORS")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.interviewTransitions))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePipeline("success", time.Second, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `care_router_pipeline_runs_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
