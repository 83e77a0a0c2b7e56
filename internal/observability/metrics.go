// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Refresh metrics
	RefreshCyclesTotal   *prometheus.CounterVec
	RefreshCycleDuration prometheus.Histogram
	RefreshCyclesSkipped prometheus.Counter
	PricesWritten        prometheus.Counter
	PriceWriteErrors     prometheus.Counter

	// Query metrics
	QueryDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stocky"
	}

	return &Metrics{
		// Refresh metrics
		RefreshCyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycles_total",
			Help:      "Total number of price refresh cycles by status",
		}, []string{"status"}),
		RefreshCycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycle_duration_seconds",
			Help:      "Price refresh cycle duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		RefreshCyclesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycles_skipped_total",
			Help:      "Total number of ticks skipped because a cycle was still running",
		}),
		PricesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "prices_written_total",
			Help:      "Total number of price observations appended",
		}),
		PriceWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "price_write_errors_total",
			Help:      "Total number of instruments that failed to refresh",
		}),

		// Query metrics
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Query facade call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last refresh cycle without failures",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRefreshCycle records a completed refresh cycle.
func RecordRefreshCycle(written, failed int, durationSeconds float64, finishedUnix int64) {
	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	DefaultMetrics.RefreshCyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RefreshCycleDuration.Observe(durationSeconds)
	DefaultMetrics.PricesWritten.Add(float64(written))
	DefaultMetrics.PriceWriteErrors.Add(float64(failed))
	if failed == 0 {
		DefaultMetrics.LastSuccessfulRefresh.Set(float64(finishedUnix))
	}
}

// RecordRefreshSkipped increments the skipped cycles counter.
func RecordRefreshSkipped() {
	DefaultMetrics.RefreshCyclesSkipped.Inc()
}

// RecordQuery records a query facade call.
func RecordQuery(operation, outcome string, seconds float64) {
	DefaultMetrics.QueryDuration.WithLabelValues(operation, outcome).Observe(seconds)
}

// RecordHTTPRequest counts a served HTTP request.
func RecordHTTPRequest(route string, code int) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
