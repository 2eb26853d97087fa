package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds cache configuration.
type Config struct {
	// TTL is the freshness window for entries.
	TTL time.Duration

	// Capacity bounds the memory tier.
	Capacity int

	// StaleRetention is how long the Redis tier retains entries past
	// their TTL for stale fallback. Must be >= TTL.
	StaleRetention time.Duration

	// Redis enables the shared tier when non-nil.
	Redis *redis.Client

	// Now overrides the time source (for testing).
	Now func() time.Time
}

// Cache is the two-tier price cache: a fast in-process LRU tier backed by
// an optional shared Redis tier. Lookups report freshness instead of
// hiding expired entries, so the caller can choose to serve stale data
// rather than fail when the upstream is degraded.
type Cache struct {
	ttl       time.Duration
	retention time.Duration
	memory    *Memory
	shared    *Redis
	logger    zerolog.Logger

	now func() time.Time
}

// New creates a cache from cfg. The Redis tier is optional; without it
// the cache is memory-only.
func New(cfg Config) (*Cache, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("cache: ttl must be positive")
	}
	if cfg.Capacity <= 0 {
		return nil, errors.New("cache: capacity must be positive")
	}
	retention := cfg.StaleRetention
	if retention < cfg.TTL {
		return nil, errors.New("cache: stale retention must be >= ttl")
	}

	c := &Cache{
		ttl:       cfg.TTL,
		retention: retention,
		memory:    NewMemory(cfg.Capacity),
		logger:    log.With().Str("component", "cache").Logger(),
		now:       time.Now,
	}
	if cfg.Redis != nil {
		c.shared = NewRedis(cfg.Redis)
	}
	if cfg.Now != nil {
		c.now = cfg.Now
	}
	return c, nil
}

// Get returns the best known entry for key. fresh reports whether the
// entry is within its TTL; ok reports whether any entry was found at all.
// Shared tier errors degrade to a miss and never fail the lookup.
func (c *Cache) Get(ctx context.Context, key Key) (entry *Entry, fresh bool, ok bool) {
	now := c.now()
	k := key.String()

	var stale *Entry
	if e, found := c.memory.Get(k); found {
		if e.Fresh(now) {
			CacheHits.WithLabelValues("memory").Inc()
			return e, true, true
		}
		stale = e
	}

	if c.shared != nil {
		e, err := c.shared.Get(ctx, k)
		switch {
		case err == nil:
			if e.Fresh(now) {
				// Promote into the memory tier preserving InsertedAt so
				// freshness stays consistent across tiers.
				c.memory.Put(e)
				CacheHits.WithLabelValues("redis").Inc()
				return e, true, true
			}
			if stale == nil || e.InsertedAt.After(stale.InsertedAt) {
				stale = e
			}
		case errors.Is(err, ErrCacheMiss):
			// Nothing in the shared tier.
		default:
			c.logger.Warn().Err(err).Str("key", k).Msg("Shared cache tier get failed")
		}
	}

	if stale != nil {
		CacheStaleHits.Inc()
		c.logger.Debug().
			Str("key", k).
			Dur("age", stale.Age(now)).
			Msg("Cache holds only a stale entry")
		return stale, false, true
	}

	CacheMisses.Inc()
	return nil, false, false
}

// Put inserts or replaces the value for key with the configured TTL.
// A write failure in the shared tier is logged but does not fail the
// operation; the memory tier is authoritative for this process.
func (c *Cache) Put(ctx context.Context, key Key, value []byte) *Entry {
	k := key.String()
	entry := &Entry{
		Key:        k,
		Value:      value,
		InsertedAt: c.now(),
		TTL:        c.ttl,
	}

	c.memory.Put(entry)

	if c.shared != nil {
		if err := c.shared.Set(ctx, k, entry, c.retention); err != nil {
			c.logger.Warn().Err(err).Str("key", k).Msg("Shared cache tier set failed")
		}
	}

	return entry
}

// Invalidate removes the entry for key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, key Key) {
	k := key.String()
	c.memory.Invalidate(k)

	if c.shared != nil {
		if err := c.shared.Delete(ctx, k); err != nil {
			c.logger.Warn().Err(err).Str("key", k).Msg("Shared cache tier delete failed")
		}
	}
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
