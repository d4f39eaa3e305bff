package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kinforge/kinchart/pkg/cache"
	"github.com/kinforge/kinchart/pkg/chart"
	"github.com/kinforge/kinchart/pkg/dataset"
	"github.com/kinforge/kinchart/pkg/kin"
	"github.com/kinforge/kinchart/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load and compute pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	s, datasetHash, datasetHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Store = s
	result.DatasetHash = datasetHash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.PersonCount = s.Len()
	result.CacheInfo.DatasetHit = datasetHit

	r.Logger.Info("loaded dataset",
		"people", s.Len(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Compute
	computeStart := time.Now()
	out, chartHit, err := r.ComputeWithCacheInfo(ctx, s, datasetHash, opts)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	result.Chart = out.Chart
	result.Stats.ComputeTime = time.Since(computeStart)
	result.Stats.UnitCount = len(out.Chart.Nodes)
	result.Stats.ConnectorCount = len(out.Chart.Connectors)
	result.Stats.SpousePasses = out.SpousePasses
	result.CacheInfo.ChartHit = chartHit

	// On a chart cache hit the intermediate products were never built;
	// Store stays the unfiltered load and Generations stays nil.
	if !chartHit {
		result.Store = out.Store
		result.Generations = out.Generations
	}

	r.Logger.Info("computed chart",
		"units", len(out.Chart.Nodes),
		"connectors", len(out.Chart.Connectors),
		"duration", result.Stats.ComputeTime)

	return result, nil
}

// LoadWithCacheInfo loads the dataset with caching and returns the
// normalized store, the document's content hash, and cache hit info.
// Local files are never cached; only fetched documents are.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*kin.Store, string, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	var data []byte
	hit := false

	if opts.Path != "" {
		var err error
		data, err = os.ReadFile(opts.Path)
		if err != nil {
			return nil, "", false, err
		}
	} else {
		cacheKey := r.Keyer.DatasetKey(opts.URL)

		if !opts.Refresh {
			if cached, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
				data = cached
				hit = true
				observability.Cache().OnCacheHit(ctx, "dataset")
			}
		}

		if data == nil {
			observability.Cache().OnCacheMiss(ctx, "dataset")
			fetchStart := time.Now()
			observability.Pipeline().OnStageStart(ctx, observability.StageFetch, 0)
			fetched, err := dataset.FetchBytes(ctx, nil, opts.URL)
			observability.Pipeline().OnStageComplete(ctx, observability.StageFetch, len(fetched), time.Since(fetchStart), err)
			if err != nil {
				return nil, "", false, err
			}
			data = fetched
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLDataset); err == nil {
				observability.Cache().OnCacheSet(ctx, "dataset", len(data))
			}
		}
	}

	normStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageNormalize, len(data))
	s, err := dataset.Read(bytes.NewReader(data))
	observability.Pipeline().OnStageComplete(ctx, observability.StageNormalize, len(data), time.Since(normStart), err)
	if err != nil {
		return nil, "", false, err
	}
	return s, cache.Hash(data), hit, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the hash and cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*kin.Store, error) {
	s, _, _, err := r.LoadWithCacheInfo(ctx, opts)
	return s, err
}

// ComputeOutput bundles the products of the compute stage.
type ComputeOutput struct {
	Chart        *chart.Chart
	Store        *kin.Store // filtered store the chart was built from
	Generations  map[string]int
	SpousePasses int
}

// ComputeWithCacheInfo builds the chart with caching and returns cache
// hit info. On a cache hit, only the Chart field of the output is set.
func (r *Runner) ComputeWithCacheInfo(ctx context.Context, s *kin.Store, datasetHash string, opts Options) (*ComputeOutput, bool, error) {
	if err := opts.ValidateForCompute(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.ChartKey(datasetHash, opts.ChartKeyOpts())

	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			if cached, err := chart.Read(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "chart")
				return &ComputeOutput{Chart: cached}, true, nil
			}
			// Corrupt entry falls through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "chart")
	}

	out, err := BuildChart(ctx, s, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := chart.Marshal(out.Chart); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLChart); err == nil {
			observability.Cache().OnCacheSet(ctx, "chart", len(data))
		}
	}

	return out, false, nil
}

// Compute is a convenience wrapper that calls ComputeWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Compute(ctx context.Context, s *kin.Store, datasetHash string, opts Options) (*ComputeOutput, error) {
	out, _, err := r.ComputeWithCacheInfo(ctx, s, datasetHash, opts)
	return out, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
