// Package cache provides the two-tier price cache: an in-process LRU tier
// for hot lookups and an optional shared Redis tier for values that
// outlive the fast tier.
//
// Entries carry their own freshness window (TTL). A lookup never hides an
// expired entry: Get returns the entry together with a fresh flag, so the
// fetcher can serve stale-but-available data when the upstream is down
// instead of failing the request. Stale entries survive in the memory
// tier until LRU eviction or explicit invalidation, and in the Redis tier
// until the configured stale retention elapses.
//
// # Basic Usage
//
//	c, err := cache.New(cache.Config{
//		TTL:            5 * time.Second,
//		Capacity:       50000,
//		StaleRetention: 10 * time.Minute,
//		Redis:          redisClient, // optional
//	})
//	if err != nil {
//		return err
//	}
//
//	key := cache.NewKey("eth", "usdt")
//
//	entry, fresh, ok := c.Get(ctx, key)
//	switch {
//	case ok && fresh:
//		// serve directly
//	case ok:
//		// stale: candidate for fallback serving
//	default:
//		// nothing cached: must call upstream
//	}
//
//	c.Put(ctx, key, payload)
//
// # Eviction
//
// The memory tier evicts by least-recently-used order, where recency is
// access order rather than insertion order: a Get on a stale entry still
// refreshes its recency. A stale pair that is requested often therefore
// outlives a fresh pair nobody asks for, which is exactly the retention
// priority wanted for outage fallback.
package cache
