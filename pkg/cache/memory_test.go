package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func memEntry(key string) *Entry {
	return &Entry{
		Key:        key,
		Value:      []byte(`{"price": 1.0}`),
		InsertedAt: time.Now(),
		TTL:        5 * time.Second,
	}
}

func TestNewMemory_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewMemory should panic with non-positive capacity")
		}
	}()
	NewMemory(0)
}

func TestMemory_PutAndGet(t *testing.T) {
	m := NewMemory(10)

	m.Put(memEntry("price:eth:usdt"))

	got, ok := m.Get("price:eth:usdt")
	if !ok {
		t.Fatal("Expected entry to be present")
	}
	if got.Key != "price:eth:usdt" {
		t.Errorf("Key = %q, want price:eth:usdt", got.Key)
	}

	if _, ok := m.Get("price:btc:usd"); ok {
		t.Error("Expected miss for absent key")
	}
}

func TestMemory_ReplaceKeepsSize(t *testing.T) {
	m := NewMemory(10)

	m.Put(memEntry("price:eth:usdt"))
	m.Put(memEntry("price:eth:usdt"))

	if m.Len() != 1 {
		t.Errorf("Len() = %d after replace, want 1", m.Len())
	}
}

func TestMemory_CapacityInvariant(t *testing.T) {
	const capacity = 8
	m := NewMemory(capacity)

	for i := 0; i < capacity*3; i++ {
		m.Put(memEntry(fmt.Sprintf("price:coin%d:usd", i)))
		if m.Len() > capacity {
			t.Fatalf("Len() = %d exceeds capacity %d after put %d", m.Len(), capacity, i)
		}
	}

	if m.Len() != capacity {
		t.Errorf("Len() = %d, want %d", m.Len(), capacity)
	}
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	m := NewMemory(2)

	m.Put(memEntry("price:eth:usdt"))
	m.Put(memEntry("price:btc:usd"))

	// Touch eth so btc becomes the LRU entry.
	if _, ok := m.Get("price:eth:usdt"); !ok {
		t.Fatal("Expected eth to be present")
	}

	m.Put(memEntry("price:sol:usd"))

	if _, ok := m.Get("price:eth:usdt"); !ok {
		t.Error("Recently used entry should survive eviction")
	}
	if _, ok := m.Get("price:btc:usd"); ok {
		t.Error("Least recently used entry should have been evicted")
	}
	if _, ok := m.Get("price:sol:usd"); !ok {
		t.Error("Newly inserted entry should be present")
	}
}

func TestMemory_StaleGetRefreshesRecency(t *testing.T) {
	m := NewMemory(2)

	// A stale entry that is still requested should outlive a fresher
	// entry nobody touches.
	stale := memEntry("price:eth:usdt")
	stale.InsertedAt = time.Now().Add(-time.Hour)
	m.Put(stale)
	m.Put(memEntry("price:btc:usd"))

	if _, ok := m.Get("price:eth:usdt"); !ok {
		t.Fatal("Expected stale entry to be returned")
	}

	m.Put(memEntry("price:sol:usd"))

	if _, ok := m.Get("price:eth:usdt"); !ok {
		t.Error("Stale-but-accessed entry should survive eviction")
	}
	if _, ok := m.Get("price:btc:usd"); ok {
		t.Error("Untouched entry should have been evicted first")
	}
}

func TestMemory_Invalidate(t *testing.T) {
	m := NewMemory(10)

	m.Put(memEntry("price:eth:usdt"))
	m.Invalidate("price:eth:usdt")

	if _, ok := m.Get("price:eth:usdt"); ok {
		t.Error("Expected entry to be gone after Invalidate")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after Invalidate, want 0", m.Len())
	}

	// Invalidating an absent key is a no-op.
	m.Invalidate("price:btc:usd")
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	const capacity = 32
	m := NewMemory(capacity)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("price:coin%d:usd", (g*7+i)%64)
				m.Put(memEntry(key))
				m.Get(key)
				if i%10 == 0 {
					m.Invalidate(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if m.Len() > capacity {
		t.Errorf("Len() = %d exceeds capacity %d after concurrent access", m.Len(), capacity)
	}
}
