// Package fetcher composes the cache, circuit breaker and retry policy
// into a single price resolution path.
//
// A lookup first consults the two-tier cache; a fresh entry is returned
// without touching the upstream. On a miss or a stale hit the upstream
// is called through the circuit breaker, with jittered exponential
// backoff between transient failures. A successful call repopulates the
// cache. When the upstream cannot be reached at all, a stale cache
// entry is served as a degraded answer before giving up.
package fetcher
