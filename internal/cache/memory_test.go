package cache

import (
	"sync"
	"testing"
	"time"
)

// TestMemoryGetSet tests basic storage and retrieval
func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()

	m.Set("fleet", 42, time.Minute)

	v, ok := m.Get("fleet")
	if !ok {
		t.Fatal("Expected cached value to be present")
	}
	if v.(int) != 42 {
		t.Errorf("Expected 42, got %v", v)
	}

	if _, ok := m.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}
}

// TestMemoryExpiry tests that entries vanish once their TTL passes
func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()

	now := time.Now()
	m.clock = func() time.Time { return now }

	m.Set("snapshot", "v1", 5*time.Minute)

	if _, ok := m.Get("snapshot"); !ok {
		t.Fatal("Expected fresh entry to be present")
	}

	now = now.Add(5*time.Minute + time.Second)
	if _, ok := m.Get("snapshot"); ok {
		t.Error("Expected entry to expire after TTL")
	}
	if m.Len() != 0 {
		t.Errorf("Expected expired entry to be collected on access, have %d entries", m.Len())
	}
}

// TestMemoryZeroTTL tests that non-positive TTLs store nothing
func TestMemoryZeroTTL(t *testing.T) {
	m := NewMemory()

	m.Set("a", 1, 0)
	m.Set("b", 2, -time.Second)

	if _, ok := m.Get("a"); ok {
		t.Error("Expected zero-TTL set to be a no-op")
	}
	if _, ok := m.Get("b"); ok {
		t.Error("Expected negative-TTL set to be a no-op")
	}
}

// TestMemoryDelete tests explicit invalidation
func TestMemoryDelete(t *testing.T) {
	m := NewMemory()

	m.Set("k", "v", time.Minute)
	m.Delete("k")

	if _, ok := m.Get("k"); ok {
		t.Error("Expected deleted key to be gone")
	}
}

// TestMemoryConcurrentAccess tests for races under parallel readers/writers
func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m.Set("shared", j, time.Minute)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m.Get("shared")
				m.Len()
			}
		}()
	}
	wg.Wait()

	if _, ok := m.Get("shared"); !ok {
		t.Error("Expected key to survive concurrent writes")
	}
}
