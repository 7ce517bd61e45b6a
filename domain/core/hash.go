package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// FleetHash fingerprints the set of stores a sweep or snapshot was computed over.
// Two results with the same FleetHash saw the same fleet composition.
type FleetHash Hash

// NewFleetHash creates a FleetHash from raw data
func NewFleetHash(data []byte) FleetHash { return FleetHash(NewHash(data)) }

// String conversion
func (h FleetHash) String() string { return Hash(h).String() }

// ComputeFleetHash fingerprints a store set together with its per-store
// conversion rates, order-independent.
func ComputeFleetHash(storeIDs []string, rates map[string]float64) FleetHash {
	ids := make([]string, len(storeIDs))
	copy(ids, storeIDs)
	sort.Strings(ids)

	var data strings.Builder
	for _, id := range ids {
		data.WriteString(id)
		data.WriteString(fmt.Sprintf(":%.6f;", rates[id]))
	}

	return NewFleetHash([]byte(data.String()))
}
