package cache

import (
	"container/list"
	"sync"
)

// Memory is the in-process fast tier: a capacity-bounded map with LRU
// eviction tracked by access order. Stale entries are kept until evicted
// or invalidated so they can be served as a fallback during upstream
// outages; a Get on a stale entry still refreshes its recency.
//
// All operations are atomic with respect to each other.
type Memory struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

// NewMemory creates a memory tier with the given capacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		panic("cache: memory capacity must be positive")
	}
	return &Memory{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the entry for key regardless of freshness, refreshing its
// recency. The second return value reports whether an entry was present.
func (m *Memory) Get(key string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(elem)
	return elem.Value.(*Entry), true
}

// Put inserts or replaces the entry for entry.Key. When at capacity the
// least recently used entry is evicted first.
func (m *Memory) Put(entry *Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[entry.Key]; ok {
		elem.Value = entry
		m.order.MoveToFront(elem)
		return
	}

	if m.order.Len() >= m.capacity {
		m.evictOldest()
	}

	m.entries[entry.Key] = m.order.PushFront(entry)
	CacheEntries.Set(float64(m.order.Len()))
}

// Invalidate removes the entry for key unconditionally.
func (m *Memory) Invalidate(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		m.order.Remove(elem)
		delete(m.entries, key)
		CacheEntries.Set(float64(m.order.Len()))
	}
}

// Len returns the current number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// evictOldest removes the least recently used entry. Caller holds m.mu.
func (m *Memory) evictOldest() {
	elem := m.order.Back()
	if elem == nil {
		return
	}
	evicted := m.order.Remove(elem).(*Entry)
	delete(m.entries, evicted.Key)
	CacheEvictions.Inc()
}
