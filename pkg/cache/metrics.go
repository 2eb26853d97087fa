package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh cache hits by tier (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_hits_total",
			Help: "Total number of fresh price cache hits",
		},
		[]string{"tier"},
	)

	// CacheStaleHits tracks lookups that only found a stale entry
	CacheStaleHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_cache_stale_hits_total",
			Help: "Total number of lookups that found only a stale entry",
		},
	)

	// CacheMisses tracks lookups that found nothing at all
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_cache_misses_total",
			Help: "Total number of price cache misses",
		},
	)

	// CacheEvictions tracks capacity evictions in the memory tier
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_cache_evictions_total",
			Help: "Total number of LRU evictions from the memory tier",
		},
	)

	// CacheEntries tracks the current number of entries in the memory tier
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_cache_entries",
			Help: "Current number of entries in the memory tier",
		},
	)

	// CacheErrors tracks shared-tier operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_errors_total",
			Help: "Total number of shared cache tier operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
