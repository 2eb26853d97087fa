package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Manser95/CryptoPair/pkg/breaker"
	"github.com/Manser95/CryptoPair/pkg/cache"
	"github.com/Manser95/CryptoPair/pkg/logging"
	"github.com/Manser95/CryptoPair/pkg/upstream"
)

// Freshness labels whether a result came from a within-TTL source or
// from a stale cache entry served as a fallback.
type Freshness int

const (
	Fresh Freshness = iota
	Stale
)

func (f Freshness) String() string {
	if f == Stale {
		return "stale"
	}
	return "fresh"
}

// RawFetch performs a single upstream call for one trading pair. It is
// expected to classify its errors with the upstream error taxonomy so
// that the retry loop can tell transient from permanent failures.
type RawFetch func(ctx context.Context, symbol, quote string) (*upstream.Price, error)

// Config assembles a Fetcher from its collaborators.
type Config struct {
	Cache   *cache.Cache
	Circuit *breaker.Circuit
	Retry   RetryConfig

	// CallTimeout bounds each individual upstream attempt. Zero leaves
	// the bound to the RawFetch implementation.
	CallTimeout time.Duration

	Fetch RawFetch
}

// Result is a resolved price together with its freshness label.
type Result struct {
	Price     *upstream.Price
	Freshness Freshness
}

// Fetcher answers price lookups from the cache when possible and from
// the upstream, guarded by the circuit breaker and retry policy, when
// not. Upstream failures fall back to stale cache entries.
type Fetcher struct {
	cache       *cache.Cache
	circuit     *breaker.Circuit
	retry       RetryConfig
	callTimeout time.Duration
	fetch       RawFetch
	logger      zerolog.Logger
}

// New validates cfg and builds a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Cache == nil {
		return nil, errors.New("fetcher: cache is required")
	}
	if cfg.Circuit == nil {
		return nil, errors.New("fetcher: circuit breaker is required")
	}
	if cfg.Fetch == nil {
		return nil, errors.New("fetcher: raw fetch function is required")
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}

	return &Fetcher{
		cache:       cfg.Cache,
		circuit:     cfg.Circuit,
		retry:       retry,
		callTimeout: cfg.CallTimeout,
		fetch:       cfg.Fetch,
		logger:      logging.NewLogger("fetcher"),
	}, nil
}

// Fetch resolves the price for key. Resolution order: fresh cache
// entry, upstream through breaker and retries, stale cache entry. The
// error is non-nil only when all three fail.
func (f *Fetcher) Fetch(ctx context.Context, key cache.Key) (*Result, error) {
	start := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(start).Seconds())
	}()

	entry, fresh, ok := f.cache.Get(ctx, key)
	if ok {
		price, err := decodePrice(entry.Value)
		if err != nil {
			// A payload we cannot decode is as good as absent.
			f.logger.Warn().
				Err(err).
				Str("key", key.String()).
				Msg("Discarding undecodable cache entry")
			f.cache.Invalidate(ctx, key)
			ok = false
		} else if fresh {
			fetchesTotal.WithLabelValues("cache").Inc()
			return &Result{Price: price, Freshness: Fresh}, nil
		}
	}

	price, upstreamErr := f.fetchWithRetry(ctx, key)
	if upstreamErr == nil {
		if payload, err := json.Marshal(price); err == nil {
			f.cache.Put(ctx, key, payload)
		} else {
			f.logger.Warn().
				Err(err).
				Str("key", key.String()).
				Msg("Failed to encode price for caching")
		}
		fetchesTotal.WithLabelValues("upstream").Inc()
		return &Result{Price: price, Freshness: Fresh}, nil
	}

	if ok {
		// The stale entry already decoded above; decode again rather
		// than carrying the value through the upstream path.
		if stale, err := decodePrice(entry.Value); err == nil {
			staleFallbacksTotal.Inc()
			fetchesTotal.WithLabelValues("stale_fallback").Inc()
			f.logger.Warn().
				Err(upstreamErr).
				Str("pair", key.Pair()).
				Msg("Serving stale price, upstream unavailable")
			return &Result{Price: stale, Freshness: Stale}, nil
		}
	}

	fetchesTotal.WithLabelValues("error").Inc()
	return nil, fmt.Errorf("%w for %s: %v", ErrUpstreamUnavailable, key.Pair(), upstreamErr)
}

// Invalidate drops any cached entry for key from both tiers.
func (f *Fetcher) Invalidate(ctx context.Context, key cache.Key) {
	f.cache.Invalidate(ctx, key)
}

func decodePrice(payload []byte) (*upstream.Price, error) {
	var p upstream.Price
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
