// Package cache provides pluggable byte caching for the chart pipeline.
//
// Two stages are worth caching: the fetched dataset document (network
// I/O) and the assembled chart (the full layout computation). Both are
// stored as JSON bytes under keys produced by a [Keyer], so any backend
// that can hold bytes works: files for the CLI, Redis for the server,
// a null cache for tests.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached artifact.
//
// Dataset documents change when someone edits the family data, so they
// expire daily. Charts are pure functions of a dataset hash and layout
// options; their entries only go stale when the code changes, so they
// live longer.
const (
	TTLDataset = 24 * time.Hour
	TTLChart   = 7 * 24 * time.Hour
)

// Cache is the storage backend interface.
// Implementations: FileCache (CLI), RedisCache (server), NullCache (off).
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found
	// and fresh; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ChartKeyOpts are the layout options that shape a chart. Two runs over
// the same dataset with different options must never share a cache entry.
type ChartKeyOpts struct {
	Orientation string  `json:"orientation"`
	NodeWidth   float64 `json:"node_width"`
	NodeHeight  float64 `json:"node_height"`
	GapX        float64 `json:"gap_x"`
	GapY        float64 `json:"gap_y"`
	Filter      string  `json:"filter"`
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// DatasetKey keys a fetched dataset document by its source URL.
	DatasetKey(url string) string

	// ChartKey keys an assembled chart by the dataset content hash and
	// the layout options that produced it.
	ChartKey(datasetHash string, opts ChartKeyOpts) string
}

// DefaultKeyer produces deterministic hash-based keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DatasetKey generates a key for dataset document caching.
func (k *DefaultKeyer) DatasetKey(url string) string {
	return hashKey("dataset", url)
}

// ChartKey generates a key for assembled chart caching.
func (k *DefaultKeyer) ChartKey(datasetHash string, opts ChartKeyOpts) string {
	return hashKey("chart", datasetHash, opts)
}
