package targetgraph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	graphBuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "targetgraph_graph_builds_total",
		Help: "Dependency graphs built from the store",
	})

	graphBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "targetgraph_graph_build_duration_seconds",
		Help:    "Time to load the universe and build a dependency graph",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	graphCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "targetgraph_graph_cache_total",
		Help: "Graph cache lookups by result",
	}, []string{"result"})

	ingestTargetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "targetgraph_ingest_targets_total",
		Help: "Targets seen by ingest, by outcome",
	}, []string{"outcome"})

	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "targetgraph_sync_runs_total",
		Help: "Sync requests by status",
	}, []string{"status"})

	syncMaterialized = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "targetgraph_sync_materialized_targets",
		Help:    "Targets materialized per sync",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)
