package fetcher

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the upstream could not be
	// reached and no cached value, fresh or stale, exists for the pair.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrRetryExhausted wraps the last attempt error after the retry
	// budget is spent.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the caller's context ends
	// while waiting out a backoff delay.
	ErrContextCancelled = errors.New("context cancelled")
)
