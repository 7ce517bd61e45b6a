package ports

import "time"

// CachePort is an explicit TTL cache abstraction. Callers construct and
// inject an implementation; nothing in the system may hide cache state in
// package-level singletons.
type CachePort interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(key string) (interface{}, bool)

	// Set stores a value that expires after ttl.
	Set(key string, value interface{}, ttl time.Duration)

	// Delete removes a key immediately.
	Delete(key string)
}
