// Package metrics provides the central Prometheus registry reference and
// HTTP server instrumentation. Domain metrics are defined in their
// respective packages (cache, breaker, upstream, fetcher) to maintain
// modularity and avoid circular dependencies.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the default Prometheus registry. All metrics are
// automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_http_requests_total",
			Help: "Total HTTP requests by path pattern and status code",
		},
		[]string{"path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_http_request_duration_seconds",
			Help:    "HTTP request duration by path pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// InstrumentHandler wraps h with request counting and latency tracking.
// The path label uses the matched route pattern, not the raw URL, so
// per-pair lookups do not explode label cardinality.
func InstrumentHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - price_cache_hits_total{tier} (Counter): Fresh cache hits by tier (memory, redis)
//   - price_cache_stale_hits_total (Counter): Lookups that found only a stale entry
//   - price_cache_misses_total (Counter): Lookups that found nothing in either tier
//   - price_cache_evictions_total (Counter): Memory tier capacity evictions
//   - price_cache_entries (Gauge): Current memory tier entry count
//   - price_cache_errors_total{operation} (Counter): Redis tier operation errors
//
// Circuit Breaker Metrics (pkg/breaker):
//   - price_breaker_state{name} (Gauge): Current state (0=closed, 1=open, 2=half-open)
//   - price_breaker_rejections_total{name} (Counter): Calls rejected without reaching upstream
//   - price_breaker_transitions_total{name, to} (Counter): State transitions by target state
//
// Upstream Metrics (pkg/upstream):
//   - price_upstream_requests_total{status} (Counter): Upstream calls by HTTP status
//   - price_upstream_request_duration_seconds (Histogram): Upstream call latency
//   - price_upstream_errors_total{class} (Counter): Upstream errors by class (transient, permanent)
//
// Fetcher Metrics (pkg/fetcher):
//   - price_fetch_total{outcome} (Counter): Fetches by outcome (cache, upstream, stale_fallback, error)
//   - price_fetch_duration_seconds (Histogram): End-to-end fetch latency
//   - price_retries_total (Counter): Upstream call retries
//   - price_retry_backoff_seconds (Histogram): Backoff delay before each retry
//   - price_retry_exhausted_total (Counter): Fetches that spent the whole retry budget
//   - price_stale_fallbacks_total (Counter): Responses served from stale cache entries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(price_cache_hits_total[5m])) /
//   (sum(rate(price_cache_hits_total[5m])) + sum(rate(price_cache_misses_total[5m])))
//
//   # Breaker Open
//   price_breaker_state == 1
//
//   # Stale Serving Rate
//   rate(price_stale_fallbacks_total[5m]) / rate(price_fetch_total[5m])
//
//   # P95 Lookup Latency
//   histogram_quantile(0.95, rate(price_fetch_duration_seconds_bucket[5m]))
