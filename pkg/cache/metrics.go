package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks collection cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ise_cache_hits_total",
			Help: "Total number of collection cache hits",
		},
	)

	// CacheMisses tracks collection cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ise_cache_misses_total",
			Help: "Total number of collection cache misses",
		},
	)

	// CacheInvalidations tracks keys dropped after category mutations.
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ise_cache_invalidations_total",
			Help: "Total number of cached collections invalidated by mutations",
		},
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ise_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "invalidate"
	)
)
