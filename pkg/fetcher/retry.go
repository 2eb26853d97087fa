package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Manser95/CryptoPair/pkg/breaker"
	"github.com/Manser95/CryptoPair/pkg/cache"
	"github.com/Manser95/CryptoPair/pkg/upstream"
)

// RetryConfig tunes the retry loop around upstream calls.
type RetryConfig struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the standard retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Backoff returns the undithered delay before retry number attempt
// (1-based): BaseDelay doubled per prior retry, capped at MaxDelay.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// jitter scales d by a random factor in [0.5, 1.0) so that callers
// retrying after a shared outage do not reconverge on the same instant.
func jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.5 + rand.Float64()/2))
}

// fetchWithRetry drives the upstream call through the circuit breaker,
// retrying transient failures with jittered exponential backoff. Every
// admitted call reports its outcome to the breaker exactly once.
func (f *Fetcher) fetchWithRetry(ctx context.Context, key cache.Key) (*upstream.Price, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		permit, err := f.circuit.Allow()
		if err != nil {
			// The breaker rejected the call. Waiting out a backoff
			// cannot help before the recovery timeout elapses.
			if lastErr != nil {
				return nil, fmt.Errorf("%w (last attempt: %v)", err, lastErr)
			}
			return nil, err
		}

		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if f.callTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, f.callTimeout)
		}
		price, err := f.fetch(callCtx, key.Symbol, key.Quote)
		cancel()

		if err == nil {
			permit.Success()
			if attempt > 1 {
				f.logger.Info().
					Str("pair", key.Pair()).
					Int("attempt", attempt).
					Msg("Upstream call succeeded after retry")
			}
			return price, nil
		}

		permit.Failure()
		lastErr = err

		if upstream.IsPermanent(err) {
			// Retrying a permanent failure yields the same answer.
			return nil, err
		}
		if attempt == f.retry.MaxAttempts {
			break
		}

		delay := jitter(Backoff(attempt, f.retry.BaseDelay, f.retry.MaxDelay))
		retriesTotal.Inc()
		retryBackoff.Observe(delay.Seconds())
		f.logger.Debug().
			Str("pair", key.Pair()).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("Upstream call failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w during backoff: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	retryExhaustedTotal.Inc()
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, f.retry.MaxAttempts, lastErr)
}

// IsOpen reports whether err stems from an open circuit breaker.
func IsOpen(err error) bool {
	return breaker.IsOpen(err)
}
