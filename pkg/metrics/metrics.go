package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogapi_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RepositoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_repository_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "entity", "driver"},
	)

	RepositoryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogapi_repository_operation_duration_seconds",
			Help:    "Storage operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "entity", "driver"},
	)

	EngagementTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_engagement_transitions_total",
			Help: "Engagement actions by outcome",
		},
		[]string{"action", "outcome"},
	)

	ConcurrentModifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogapi_blog_version_conflicts_total",
			Help: "Blog saves rejected because the stored version had moved",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_auth_failures_total",
			Help: "Rejected authentication attempts",
		},
		[]string{"reason"},
	)
)

func RecordHttpRequest(method, route, status string, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, route, status).Inc()
	HttpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordRepositoryOperation(operation, entity, driver string, duration time.Duration) {
	RepositoryOperationsTotal.WithLabelValues(operation, entity, driver).Inc()
	RepositoryOperationDuration.WithLabelValues(operation, entity, driver).Observe(duration.Seconds())
}

// RecordEngagement counts one engagement attempt; outcome is "applied" or
// the rejection reason.
func RecordEngagement(action, outcome string) {
	EngagementTransitions.WithLabelValues(action, outcome).Inc()
}

func RecordConcurrentModification() {
	ConcurrentModifications.Inc()
}

func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}
