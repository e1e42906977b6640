package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmfix_files_scanned_total",
		Help: "Total number of source files scanned for import specifiers.",
	})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esmfix_scan_seconds",
		Help:    "Time spent extracting specifiers from a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scanner"})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esmfix_resolutions_total",
		Help: "Total number of specifier resolutions by specifier kind and outcome.",
	}, []string{"kind", "outcome"})

	RewritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esmfix_rewrites_total",
		Help: "Total number of specifiers rewritten, by statement kind.",
	}, []string{"statement"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "esmfix_run_seconds",
		Help:    "Wall time of one traversal over a set of entry points.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmfix_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esmfix_watch_runs_total",
		Help: "Total number of traversals triggered by file changes, by result.",
	}, []string{"result"})
)
