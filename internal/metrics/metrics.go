package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync job metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacatalog_sync_runs_total",
			Help: "Total number of trending sync runs by kind and final status",
		},
		[]string{"kind", "status"},
	)

	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacatalog_sync_items_total",
			Help: "Trending items handled by the sync job, by outcome",
		},
		[]string{"kind", "outcome"}, // upserted, failed, filtered, skipped
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediacatalog_sync_duration_seconds",
			Help:    "Duration of trending sync runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"kind"},
	)

	// Upstream API metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediacatalog_upstream_request_duration_seconds",
			Help:    "Duration of requests to upstream providers in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint", "status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediacatalog_circuit_breaker_state",
			Help: "Circuit breaker state per upstream (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// HTTP API metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediacatalog_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordSyncRun records the outcome of one sync run
func RecordSyncRun(kind, status string, duration time.Duration) {
	SyncRunsTotal.WithLabelValues(kind, status).Inc()
	SyncDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordSyncItem counts one processed trending item
func RecordSyncItem(kind, outcome string) {
	SyncItemsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordUpstreamRequest records an upstream call. status is the HTTP code, or 0 when no response arrived.
func RecordUpstreamRequest(service, endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestDuration.WithLabelValues(service, endpoint, label).Observe(duration.Seconds())
}

// SetCircuitBreakerState publishes a breaker state as its numeric value
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest records one served API request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
