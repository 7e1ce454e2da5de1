// Package telemetry collects prometheus metrics for query handling, model
// calls and tool executions. A nil *Telemetry is a no-op so callers can run
// with monitoring disabled.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry holds the service metric collectors.
type Telemetry struct {
	queriesTotal   *prometheus.CounterVec
	queryDuration  prometheus.Histogram
	modelCalls     *prometheus.CounterVec
	toolExecutions *prometheus.CounterVec
	tokensUsed     *prometheus.CounterVec
}

// NewTelemetry registers the service collectors with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	factory := promauto.With(reg)
	return &Telemetry{
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_queries_total",
			Help: "Answered user queries by outcome.",
		}, []string{"outcome"}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lectern_query_duration_seconds",
			Help:    "End-to-end query handling duration.",
			Buckets: prometheus.DefBuckets,
		}),
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_model_calls_total",
			Help: "Model API calls by outcome.",
		}, []string{"outcome"}),
		toolExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_tool_executions_total",
			Help: "Tool executions by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		tokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_model_tokens_total",
			Help: "Model tokens consumed by direction.",
		}, []string{"direction"}),
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// RecordQuery counts one answered query and its duration.
func (t *Telemetry) RecordQuery(d time.Duration, ok bool) {
	if t == nil {
		return
	}
	t.queriesTotal.WithLabelValues(outcome(ok)).Inc()
	t.queryDuration.Observe(d.Seconds())
}

// RecordModelCall counts one model API call and its token usage.
func (t *Telemetry) RecordModelCall(ok bool, inputTokens, outputTokens int64) {
	if t == nil {
		return
	}
	t.modelCalls.WithLabelValues(outcome(ok)).Inc()
	if inputTokens > 0 {
		t.tokensUsed.WithLabelValues("input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		t.tokensUsed.WithLabelValues("output").Add(float64(outputTokens))
	}
}

// RecordToolExecution counts one tool invocation.
func (t *Telemetry) RecordToolExecution(tool string, ok bool) {
	if t == nil {
		return
	}
	t.toolExecutions.WithLabelValues(tool, outcome(ok)).Inc()
}
