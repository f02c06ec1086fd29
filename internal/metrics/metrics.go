// Package metrics declares the advisor's Prometheus collectors, registered on
// the default registry and served by promhttp at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Calculation outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeLookup     = "unknown_selection"
	OutcomeFetchError = "fetch_error"
	OutcomeError      = "error"
)

var (
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_calculations_total",
			Help: "Calculations served, by transport and outcome",
		},
		[]string{"transport", "outcome"},
	)

	CalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantcare_calculation_duration_seconds",
			Help:    "Time spent on a calculation including table fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport"},
	)

	SimilarRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantcare_similar_records",
			Help:    "Number of historical plantings matched per calculation",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	TableFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantcare_table_fetch_duration_seconds",
			Help:    "Duration of table fetches by source and table",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "table"},
	)

	TableFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_table_fetch_errors_total",
			Help: "Failed table fetches by source and table",
		},
		[]string{"source", "table"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_table_cache_lookups_total",
			Help: "Table cache lookups by table and result (hit or miss)",
		},
		[]string{"table", "result"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plantcare_upstream_breaker_state",
			Help: "Circuit breaker state per upstream table (0 closed, 1 half-open, 2 open)",
		},
		[]string{"table"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantcare_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MQTTMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_mqtt_messages_total",
			Help: "MQTT request messages by result (handled, duplicate, malformed, publish_error)",
		},
		[]string{"result"},
	)
)

// RecordCalculation counts one calculation and its latency.
func RecordCalculation(transport, outcome string, d time.Duration) {
	Calculations.WithLabelValues(transport, outcome).Inc()
	CalculationDuration.WithLabelValues(transport).Observe(d.Seconds())
}

// RecordTableFetch records a fetch from source for table; err marks it failed.
func RecordTableFetch(source, table string, d time.Duration, err error) {
	TableFetchDuration.WithLabelValues(source, table).Observe(d.Seconds())
	if err != nil {
		TableFetchErrors.WithLabelValues(source, table).Inc()
	}
}

// RecordCacheLookup counts a cache hit or miss for table.
func RecordCacheLookup(table string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(table, result).Inc()
}

// RecordHTTPRequest counts one served HTTP request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
