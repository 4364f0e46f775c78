package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfarer_runs_started_total",
			Help: "Total number of planning runs started",
		},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_runs_completed_total",
			Help: "Total number of planning runs completed",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfarer_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	UnitFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_unit_failures_total",
			Help: "Reasoning or fetch units that failed or timed out",
		},
		[]string{"label"},
	)

	// Cache metrics, labeled by cache name (weather, events, flights,
	// hotels, traffic, inference)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_cache_hits_total",
			Help: "Cache hits per cache",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_cache_misses_total",
			Help: "Cache misses per cache",
		},
		[]string{"cache"},
	)

	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_fetch_retries_total",
			Help: "HTTP fetch attempts beyond the first, per host",
		},
		[]string{"host"},
	)
)
