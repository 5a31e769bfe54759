package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned by helpers that treat a miss as an error.
	// Cache.Get itself reports misses via its bool return instead.
	ErrCacheMiss = errors.New("cache miss")
)
