package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// functionRequestsTotal counts handler invocations.
	// Labels: function (start-bot/fetch-transcript/...), status (HTTP status code)
	functionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetfn_function_requests_total",
			Help: "Total number of function invocations by function and response status",
		},
		[]string{"function", "status"},
	)

	// upstreamRequestsTotal counts outbound calls.
	// Labels: service (vexa/gemini), operation, outcome (success/api_error/transport_error)
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetfn_upstream_requests_total",
			Help: "Total number of upstream API calls by service, operation and outcome",
		},
		[]string{"service", "operation", "outcome"},
	)

	// upstreamRequestDuration observes outbound call latency in seconds
	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meetfn_upstream_request_duration_seconds",
			Help:    "Upstream API call duration in seconds by service and operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "operation"},
	)
)

// Upstream call outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeAPIError       = "api_error"
	OutcomeTransportError = "transport_error"
)

// RecordFunctionRequest records one handler invocation and its response status
func RecordFunctionRequest(function, status string) {
	functionRequestsTotal.WithLabelValues(function, status).Inc()
}

// RecordUpstreamCall records an outbound call and how long it took
func RecordUpstreamCall(service, operation, outcome string, elapsed time.Duration) {
	upstreamRequestsTotal.WithLabelValues(service, operation, outcome).Inc()
	upstreamRequestDuration.WithLabelValues(service, operation).Observe(elapsed.Seconds())
}
