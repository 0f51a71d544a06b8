// Package metrics holds the prometheus collectors of the service. Every
// collector is registered on the default registry and served by promhttp
// at /metrics.
package metrics

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "deontologia"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	FeedbackCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_created_total",
			Help:      "Feedback records created by kind",
		},
		[]string{"kind"},
	)

	FeedbackRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_validation_failures_total",
			Help:      "Submissions rejected by form validation",
		},
	)

	ReviewUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_updates_total",
			Help:      "Review updates by resulting status",
		},
		[]string{"status"},
	)

	BulkOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_operations_total",
			Help:      "Bulk operations by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	AICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_calls_total",
			Help:      "Summarizer calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	AICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_call_duration_seconds",
			Help:      "Summarizer call latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ai_circuit_breaker_state",
			Help:      "Summarizer circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Reports generated by tab and trigger",
		},
		[]string{"tab", "trigger"},
	)

	SSEClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected server-sent event clients by stream",
		},
		[]string{"stream"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordAICall records one summarizer call.
func RecordAICall(provider string, duration time.Duration, err error) {
	AICalls.WithLabelValues(provider, outcome(err)).Inc()
	AICallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordBulk records a bulk status change or delete.
func RecordBulk(action string, err error) {
	BulkOperations.WithLabelValues(action, outcome(err)).Inc()
}

// SetBreakerState publishes a circuit breaker state by its name.
func SetBreakerState(name, state string) {
	v := 0.0
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	BreakerState.WithLabelValues(name).Set(v)
}

// RegisterDBStats exposes the connection pool stats of db. Registering the
// same database twice is not an error.
func RegisterDBStats(db *sql.DB, name string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return nil
	}
	return err
}
