package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The server uses this to keep per-tenant datasets from colliding in a
// shared Redis instance.
//
// Example usage:
//
//	// Tenant-specific keys for private datasets
//	tenantKeyer := NewScopedKeyer(NewDefaultKeyer(), "tenant:abc123:")
//
//	// Global keys for public datasets
//	globalKeyer := NewDefaultKeyer()
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

// DatasetKey generates a prefixed key for dataset document caching.
func (k *ScopedKeyer) DatasetKey(url string) string {
	return k.prefix + k.inner.DatasetKey(url)
}

// ChartKey generates a prefixed key for assembled chart caching.
func (k *ScopedKeyer) ChartKey(datasetHash string, opts ChartKeyOpts) string {
	return k.prefix + k.inner.ChartKey(datasetHash, opts)
}
