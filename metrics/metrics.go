// Package metrics exports Prometheus metrics for the HTTP surface and for
// screening runs. Everything is registered with the default registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15, 30, 60},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of rate limiter buckets (clients seen in the last ~5 minutes)",
		},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screening_runs_total",
			Help: "Screening runs by outcome (ok, degraded, rejected)",
		},
		[]string{"outcome"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screening_run_duration_seconds",
			Help:    "Duration of screening runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	SourceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_total",
			Help: "Source fetches by source and result (ok, cached, network, format, parse, user_input)",
		},
		[]string{"source", "result"},
	)

	SourceRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reference_rows",
			Help: "Normalized reference rows seen by the last run",
		},
		[]string{"source"},
	)

	MatchRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "match_records",
			Help: "Match records of the last run (all, new)",
		},
		[]string{"kind"},
	)

	Products = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "products_loaded",
			Help: "Entries in the current product list",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		RunsTotal,
		RunDuration,
		SourceFetches,
		SourceRows,
		MatchRecords,
		Products,
	)
}
