package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videosplitter_jobs_created_total",
		Help: "Jobs created via upload requests.",
	})

	SplitsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videosplitter_splits_submitted_total",
		Help: "Split configurations accepted for processing.",
	})

	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videosplitter_jobs_completed_total",
		Help: "Jobs that reached COMPLETED.",
	})

	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videosplitter_jobs_failed_total",
		Help: "Jobs that reached FAILED, including timeouts and cancels.",
	})

	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "videosplitter_processing_duration_seconds",
		Help:    "Wall time from job creation to completion.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
