package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Instances are constructed and injected
// explicitly; there is no package-level cache state anywhere in the system.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   func() time.Time
}

// NewMemory creates an empty TTL cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		clock:   time.Now,
	}
}

// Get returns the cached value and whether it was present and fresh.
// Expired entries are dropped on access.
func (m *Memory) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if m.clock().After(e.expiresAt) {
		m.Delete(key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value that expires after ttl. A non-positive ttl stores
// nothing, which keeps zero-TTL configs safe.
func (m *Memory) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{
		value:     value,
		expiresAt: m.clock().Add(ttl),
	}
}

// Delete removes a key immediately
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Len reports how many entries are held, including not-yet-collected
// expired ones. Used by the ops surface.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
