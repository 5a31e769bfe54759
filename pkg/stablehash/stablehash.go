// Package stablehash provides order-sensitive structural hashing for
// placement value objects.
//
// Placement results (tiles, row placements, wire lookups) are deduplicated
// by structural equality, and their hashes are used as cache keys. The
// hashes produced here are stable for a given field order and content, so
// two structurally identical objects always hash identically within a
// process run. They are not cryptographic; use the cache package's SHA-256
// helpers for on-disk or networked keys.
package stablehash

// FNV-1a constants (64 bit).
const (
	offset64 = 14695981039346656037
	prime64  = 1099511628211
)

// New returns the hash seed value.
func New() uint64 { return offset64 }

// Combine folds v into seed and returns the new seed.
// Combination is order sensitive: Combine(Combine(s, a), b) differs from
// Combine(Combine(s, b), a) in general.
func Combine(seed, v uint64) uint64 {
	seed ^= v
	seed *= prime64
	return seed
}

// Int folds a signed integer into seed.
func Int(seed uint64, v int) uint64 { return Combine(seed, uint64(int64(v))) }

// Bool folds a boolean into seed.
func Bool(seed uint64, v bool) uint64 {
	if v {
		return Combine(seed, 1)
	}
	return Combine(seed, 0)
}

// String folds a string into seed, byte by byte, terminated by the length
// so that adjacent strings cannot alias.
func String(seed uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		seed = Combine(seed, uint64(s[i]))
	}
	return Int(seed, len(s))
}
