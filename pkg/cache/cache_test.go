package cache

import (
	"context"
	"testing"
	"time"
)

// fakeClock drives freshness in tests without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration, capacity int) (*Cache, *fakeClock) {
	t.Helper()

	c, err := New(Config{
		TTL:            ttl,
		Capacity:       capacity,
		StaleRetention: 10 * ttl,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	clock := &fakeClock{now: time.Now()}
	c.now = clock.Now
	return c, clock
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{Capacity: 10, StaleRetention: time.Minute}},
		{"zero capacity", Config{TTL: time.Second, StaleRetention: time.Minute}},
		{"retention below ttl", Config{TTL: time.Minute, Capacity: 10, StaleRetention: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestCache_GetMiss(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Second, 10)

	entry, fresh, ok := c.Get(context.Background(), NewKey("eth", "usdt"))
	if ok || fresh || entry != nil {
		t.Errorf("Expected miss, got entry=%v fresh=%v ok=%v", entry, fresh, ok)
	}
}

func TestCache_PutThenFreshGet(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Second, 10)
	ctx := context.Background()
	key := NewKey("eth", "usdt")

	c.Put(ctx, key, []byte(`{"price": 3500.12}`))

	entry, fresh, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("Expected entry to be present")
	}
	if !fresh {
		t.Error("Expected entry to be fresh right after Put")
	}
	if string(entry.Value) != `{"price": 3500.12}` {
		t.Errorf("Value = %s", entry.Value)
	}
}

func TestCache_FreshnessBoundary(t *testing.T) {
	c, clock := newTestCache(t, 5*time.Second, 10)
	ctx := context.Background()
	key := NewKey("eth", "usdt")

	c.Put(ctx, key, []byte(`{}`))

	clock.Advance(4999 * time.Millisecond)
	if _, fresh, ok := c.Get(ctx, key); !ok || !fresh {
		t.Errorf("At age < ttl: fresh=%v ok=%v, want fresh hit", fresh, ok)
	}

	clock.Advance(time.Millisecond)
	entry, fresh, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("Stale entry should still be returned")
	}
	if fresh {
		t.Error("At age == ttl the entry must be stale")
	}
	if entry == nil {
		t.Fatal("Stale entry value must be available")
	}
}

func TestCache_ReplaceResetsInsertedAt(t *testing.T) {
	c, clock := newTestCache(t, 5*time.Second, 10)
	ctx := context.Background()
	key := NewKey("eth", "usdt")

	c.Put(ctx, key, []byte(`{"price": 1}`))
	clock.Advance(time.Minute)

	// Entry is stale now. A fresh Put replaces it.
	if _, fresh, _ := c.Get(ctx, key); fresh {
		t.Fatal("Entry should be stale before replacement")
	}

	c.Put(ctx, key, []byte(`{"price": 2}`))

	entry, fresh, ok := c.Get(ctx, key)
	if !ok || !fresh {
		t.Fatalf("Replaced entry should be fresh: fresh=%v ok=%v", fresh, ok)
	}
	if string(entry.Value) != `{"price": 2}` {
		t.Errorf("Value = %s, want replaced payload", entry.Value)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Second, 10)
	ctx := context.Background()
	key := NewKey("eth", "usdt")

	c.Put(ctx, key, []byte(`{}`))
	c.Invalidate(ctx, key)

	if _, _, ok := c.Get(ctx, key); ok {
		t.Error("Expected entry to be gone after Invalidate")
	}
}

func TestCache_StaleServedAfterEvictionPressure(t *testing.T) {
	// A stale entry survives as long as it is not evicted; freshness and
	// retention are independent of capacity.
	c, clock := newTestCache(t, time.Second, 2)
	ctx := context.Background()
	key := NewKey("eth", "usdt")

	c.Put(ctx, key, []byte(`{"price": 1}`))
	clock.Advance(time.Hour)

	entry, fresh, ok := c.Get(ctx, key)
	if !ok || fresh {
		t.Fatalf("Expected stale hit: fresh=%v ok=%v", fresh, ok)
	}
	if string(entry.Value) != `{"price": 1}` {
		t.Errorf("Value = %s", entry.Value)
	}
}

func TestCache_TTL(t *testing.T) {
	c, _ := newTestCache(t, 5*time.Second, 10)
	if c.TTL() != 5*time.Second {
		t.Errorf("TTL() = %v, want 5s", c.TTL())
	}
}
