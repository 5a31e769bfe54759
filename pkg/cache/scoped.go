package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This keeps cache entries for different process technologies or projects
// from colliding when they share one backend.
//
// Example usage:
//
//	// Per-process-node keys
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "sim20:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TableKey generates a prefixed key for a built tile table.
func (k *ScopedKeyer) TableKey(specHash string, opts TableKeyOpts) string {
	return k.prefix + k.inner.TableKey(specHash, opts)
}

// TileKey generates a prefixed key for a single tile.
func (k *ScopedKeyer) TileKey(tableHash, tile string) string {
	return k.prefix + k.inner.TileKey(tableHash, tile)
}
