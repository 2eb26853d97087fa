package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the tier
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Redis is the shared (L2) tier. It holds JSON-encoded entries with a
// Redis retention TTL longer than the entry's freshness TTL, so stale
// entries survive for fallback serving until Redis expires them.
type Redis struct {
	redis *redis.Client
}

// NewRedis creates the shared tier over an existing Redis client.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("cache: redis client cannot be nil")
	}
	return &Redis{redis: client}
}

// Get retrieves an entry by key. Stale-but-retained entries are returned
// as-is; freshness is the caller's call. Returns ErrCacheMiss when the
// key is absent.
func (r *Redis) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	return &entry, nil
}

// Set stores an entry with the given retention. Retention bounds how long
// the entry may be served stale and must be at least the entry's TTL.
func (r *Redis) Set(ctx context.Context, key string, entry *Entry, retention time.Duration) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if retention <= 0 {
		return fmt.Errorf("retention must be positive (got %v)", retention)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := r.redis.Set(ctx, key, data, retention).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, key).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
