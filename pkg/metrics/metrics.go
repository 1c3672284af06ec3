package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ScrapeJobsInQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrape_jobs_in_queue",
			Help: "Current number of scrape jobs waiting in the queue.",
		},
	)

	ScrapeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_jobs_total",
			Help: "Total number of processed scrape jobs.",
		},
		[]string{"status"},
	)

	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_fetches_total",
			Help: "Total number of page fetches by outcome.",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "page_fetch_duration_seconds",
			Help:    "Duration of page fetches including retries.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30, 60},
		},
		[]string{"domain"},
	)

	SyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_syncs_total",
			Help: "Total number of knowledge base synchronizations by status.",
		},
		[]string{"status", "trigger"},
	)

	SyncBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "knowledge_sync_batch_duration_seconds",
			Help:    "Duration of scheduled synchronization batches.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
)
