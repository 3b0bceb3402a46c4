// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Trace metrics
	TracesStarted     prometheus.Counter
	TracesCompleted   *prometheus.CounterVec
	TraceDuration     prometheus.Histogram
	FlowRowsProduced  prometheus.Counter
	AddressesExpanded prometheus.Counter
	BranchFailures    prometheus.Counter
	FrontierSize      prometheus.Gauge

	// Entity metrics
	EndpointsFound *prometheus.CounterVec

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Watch metrics
	WatchedAddresses prometheus.Gauge
	WatchHits        prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fund_tracer"
	}

	return &Metrics{
		TracesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "started_total",
			Help:      "Total number of traces started",
		}),
		TracesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "completed_total",
			Help:      "Total number of traces completed, by outcome",
		}, []string{"outcome"}),
		TraceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "duration_seconds",
			Help:      "Wall time of one complete trace",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		FlowRowsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "flow_rows_total",
			Help:      "Total flow-graph rows produced across all traces",
		}),
		AddressesExpanded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "addresses_expanded_total",
			Help:      "Total frontier addresses expanded",
		}),
		BranchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "branch_failures_total",
			Help:      "Total branches abandoned because history fetch failed",
		}),
		FrontierSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "frontier_size",
			Help:      "Current number of pending frontier addresses",
		}),
		EndpointsFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entity",
			Name:      "endpoints_found_total",
			Help:      "Terminal entities reached, by category",
		}, []string{"category"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Solana RPC call latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_errors_total",
			Help:      "Solana RPC call errors by method",
		}, []string{"method"}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Database query errors by operation",
		}, []string{"operation"}),
		WatchedAddresses: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "addresses",
			Help:      "Number of addresses currently under live watch",
		}),
		WatchHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "hits_total",
			Help:      "Log notifications received for watched addresses",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTraceStarted increments the traces started counter.
func RecordTraceStarted() {
	DefaultMetrics.TracesStarted.Inc()
}

// RecordTraceCompleted increments the completion counter for an outcome
// ("ok", "partial", "error").
func RecordTraceCompleted(outcome string) {
	DefaultMetrics.TracesCompleted.WithLabelValues(outcome).Inc()
}

// RecordBranchFailure increments the abandoned branch counter.
func RecordBranchFailure() {
	DefaultMetrics.BranchFailures.Inc()
}
