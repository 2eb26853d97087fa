package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_fetch_total",
			Help: "Total price fetches by outcome (cache, upstream, stale_fallback, error)",
		},
		[]string{"outcome"},
	)

	fetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_fetch_duration_seconds",
			Help:    "End-to-end price fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	retriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_retries_total",
			Help: "Total upstream call retries",
		},
	)

	retryBackoff = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_retry_backoff_seconds",
			Help:    "Backoff delay before each retry in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	retryExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_retry_exhausted_total",
			Help: "Total fetches that spent the whole retry budget without success",
		},
	)

	staleFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_stale_fallbacks_total",
			Help: "Total responses served from stale cache entries after upstream failure",
		},
	)
)
