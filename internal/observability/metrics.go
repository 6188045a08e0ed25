package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyscan_analysis_seconds",
		Help:    "Time spent on one analysis stage for a file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyscan_files_analyzed_total",
		Help: "Total number of files analyzed.",
	})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyscan_diagnostics_total",
		Help: "Total diagnostics emitted, by code.",
	}, []string{"code"})

	LogicalLines = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyscan_logical_lines",
		Help:    "Logical lines per analyzed file after preprocessing.",
		Buckets: prometheus.ExponentialBuckets(8, 2, 10),
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyscan_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherRunsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyscan_watcher_runs_throttled_total",
		Help: "Re-analysis runs skipped because the rate limiter denied them.",
	})
)
