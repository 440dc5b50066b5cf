package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Command resolution metrics
	CommandRequests    prometheus.Counter
	CommandLatency     prometheus.Histogram
	CommandErrors      *prometheus.CounterVec
	ResolverIterations prometheus.Histogram

	// Tool execution by tool name and outcome ("success", "failure", "error")
	ToolExecutions *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics(sessions *SessionService) *Metrics {
	metrics := &Metrics{
		CommandRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "todoflow_command_requests_total",
			Help: "Total number of natural-language commands processed",
		}),

		CommandLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "todoflow_command_duration_seconds",
			Help:    "Command resolution latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for LLM responses
		}),

		CommandErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "todoflow_command_errors_total",
			Help: "Total number of command resolution errors by type",
		}, []string{"error_type"}),

		ResolverIterations: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "todoflow_resolver_iterations",
			Help:    "Tool-calling loop iterations per command",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10},
		}),

		ToolExecutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "todoflow_tool_executions_total",
			Help: "Total number of tool executions by tool and outcome",
		}, []string{"tool", "outcome"}),
	}

	// Live thread count comes straight from the session store
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "todoflow_sessions_active",
			Help: "Current number of live conversation threads",
		},
		func() float64 {
			if sessions != nil {
				return float64(sessions.Count())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordCommandRequest records a processed command
func (m *Metrics) RecordCommandRequest() {
	m.CommandRequests.Inc()
}

// RecordCommandLatency records command resolution latency
func (m *Metrics) RecordCommandLatency(seconds float64) {
	m.CommandLatency.Observe(seconds)
}

// RecordCommandError records a command resolution error
func (m *Metrics) RecordCommandError(errorType string) {
	m.CommandErrors.WithLabelValues(errorType).Inc()
}

// RecordResolverIterations records how many loop iterations a command took
func (m *Metrics) RecordResolverIterations(n int) {
	m.ResolverIterations.Observe(float64(n))
}

// RecordToolExecution records one tool invocation
func (m *Metrics) RecordToolExecution(tool, outcome string) {
	m.ToolExecutions.WithLabelValues(tool, outcome).Inc()
}
