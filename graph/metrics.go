package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects Prometheus-compatible metrics for chat graph
// execution over the fixed eleven-node topology: per-node latency, retry
// counts, and grounding-check outcomes.
type PrometheusMetrics struct {
	nodeLatency  *prometheus.HistogramVec
	retries      prometheus.Counter
	groundingOut *prometheus.CounterVec
	requests     prometheus.Counter
	requestErr   prometheus.Counter
}

// NewPrometheusMetrics registers the chat-graph metric set with reg (use
// prometheus.DefaultRegisterer for the global registry).
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ragchat",
			Name:      "node_latency_ms",
			Help:      "Per-node execution duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node_id", "status"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ragchat",
			Name:      "regeneration_retries_total",
			Help:      "Cumulative generate-node regeneration attempts triggered by groundingCheck.",
		}),
		groundingOut: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragchat",
			Name:      "grounding_status_total",
			Help:      "Count of groundingCheck outcomes by status.",
		}, []string{"status"}),
		requests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ragchat",
			Name:      "requests_total",
			Help:      "Total RunChat invocations.",
		}),
		requestErr: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ragchat",
			Name:      "request_errors_total",
			Help:      "Total RunChat invocations that ended with state.Error set.",
		}),
	}
}

func (m *PrometheusMetrics) observeNode(nodeID, status string, ms float64) {
	if m == nil {
		return
	}
	m.nodeLatency.WithLabelValues(nodeID, status).Observe(ms)
}

func (m *PrometheusMetrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *PrometheusMetrics) observeGrounding(status string) {
	if m == nil {
		return
	}
	m.groundingOut.WithLabelValues(status).Inc()
}

func (m *PrometheusMetrics) observeRequest(hasErr bool) {
	if m == nil {
		return
	}
	m.requests.Inc()
	if hasErr {
		m.requestErr.Inc()
	}
}
