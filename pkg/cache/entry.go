package cache

import "time"

// Entry represents a cached price payload. Entries are immutable once
// inserted; replacing a value creates a new Entry with a new InsertedAt.
type Entry struct {
	// Key is the cache key this entry was stored under.
	Key string `json:"key"`

	// Value is the JSON-encoded payload.
	Value []byte `json:"value"`

	// InsertedAt is when the entry was written.
	InsertedAt time.Time `json:"inserted_at"`

	// TTL is the freshness window. Entries older than TTL are stale but
	// still retained for fallback serving.
	TTL time.Duration `json:"ttl"`
}

// Fresh reports whether the entry is within its freshness window at now.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Sub(e.InsertedAt) < e.TTL
}

// Age returns how long ago the entry was inserted.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.InsertedAt)
}
