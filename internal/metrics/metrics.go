package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiosessions_http_requests_total",
			Help: "Total number of HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiosessions_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthAttempts counts password checks; outcome is "success", "invalid" or "error".
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiosessions_auth_attempts_total",
			Help: "Total number of private zone password checks",
		},
		[]string{"operation", "outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audiosessions_active_sessions",
			Help: "Number of client sessions currently held in the session store",
		},
	)

	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiosessions_catalog_lookups_total",
			Help: "Catalog lookups by genre and outcome",
		},
		[]string{"genre", "outcome"},
	)
)
