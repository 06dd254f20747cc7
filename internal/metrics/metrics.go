package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interpretations counts chat messages by outcome: transaction, query,
	// chat, provider_error or unparsable.
	Interpretations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgemon_interpretations_total",
			Help: "Total number of chat messages interpreted, by outcome",
		},
		[]string{"outcome"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "budgemon_completion_duration_seconds",
			Help:    "Duration of completion provider calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider"},
	)

	ArchiveJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgemon_archive_jobs_total",
			Help: "Total number of archive jobs processed, by final status",
		},
		[]string{"status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "budgemon_rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
