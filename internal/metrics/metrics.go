// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method, route pattern and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridview_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// RemoteFetches counts remote page fetches by view and outcome
	// (ok, error, cancelled).
	RemoteFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridview_remote_fetches_total",
			Help: "Total number of remote page fetches",
		},
		[]string{"view", "outcome"},
	)
	// RemoteFetchDuration is the latency of remote page fetches.
	RemoteFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridview_remote_fetch_duration_seconds",
			Help:    "Remote page fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)
	// StaleResponses counts fetch results discarded because a newer
	// request had been issued.
	StaleResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridview_stale_responses_total",
			Help: "Total number of superseded remote responses that were discarded",
		},
		[]string{"view"},
	)
	// LocalExecutions counts local executor runs, split by memo hits.
	LocalExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridview_local_executions_total",
			Help: "Total number of local executor derivations",
		},
		[]string{"view", "memo"},
	)
	// ActiveSessions is the number of live browser view sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridview_active_sessions",
			Help: "Number of live browser view sessions",
		},
	)
)
