package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks snapshot restores by backend.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_cache_hits_total",
			Help: "Total number of fresh roster snapshots restored from cache",
		},
		[]string{"backend"}, // "redis", "sqlite", "memory"
	)

	// CacheMisses tracks loads that could not serve a snapshot.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_cache_misses_total",
			Help: "Total number of roster snapshot cache misses by reason",
		},
		[]string{"reason"}, // "missing", "stale", "below_threshold", "invalid"
	)

	// CacheSize tracks the size of the last saved snapshot in bytes.
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mlb_cache_size_bytes",
			Help: "Size of the last saved roster snapshot in bytes",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "load", "save", "clear"
	)
)
