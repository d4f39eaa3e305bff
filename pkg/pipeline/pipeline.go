// Package pipeline provides the core chart pipeline for kinchart.
//
// This package implements the complete load, compute, and assemble flow
// that can be used by CLI, API, and worker components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of two cached stages built from smaller steps:
//
//  1. Load: fetch or read the dataset document and normalize it into a
//     person store
//  2. Compute: assign generations, propagate spouse generations, build
//     display units, lay them out, and route connectors
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    URL:         "https://example.com/family.json",
//	    Orientation: "vertical",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	chart := result.Chart
//
// Run individual stages:
//
//	// Load only
//	s, err := runner.Load(ctx, opts)
//
//	// Compute with an existing store
//	out, err := runner.Compute(ctx, s, datasetHash, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kinforge/kinchart/pkg/cache"
	"github.com/kinforge/kinchart/pkg/chart"
	kcerrors "github.com/kinforge/kinchart/pkg/errors"
	"github.com/kinforge/kinchart/pkg/kin"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultOrientation stacks generations top-to-bottom.
	DefaultOrientation = string(chart.Vertical)

	// DefaultNodeWidth is the box extent along the sibling axis.
	DefaultNodeWidth = 160.0

	// DefaultNodeHeight is the box extent along the generation axis.
	DefaultNodeHeight = 70.0

	// DefaultGapX is the gap between sibling boxes.
	DefaultGapX = 28.0

	// DefaultGapY is the gap between generation bands.
	DefaultGapY = 60.0
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the chart pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of URL or Path must be set.
	URL     string `json:"url,omitempty"`
	Path    string `json:"path,omitempty"`
	Refresh bool   `json:"refresh,omitempty"` // bypass dataset cache

	// Filter narrows the chart to people whose names fuzzy-match,
	// plus their relatives. Empty means the whole dataset.
	Filter string `json:"filter,omitempty"`

	// Layout options
	Orientation string  `json:"orientation,omitempty"`
	NodeWidth   float64 `json:"node_width,omitempty"`
	NodeHeight  float64 `json:"node_height,omitempty"`
	GapX        float64 `json:"gap_x,omitempty"`
	GapY        float64 `json:"gap_y,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Store is the normalized person store the chart was built from,
	// after any filter was applied.
	Store *kin.Store

	// Generations maps person ID to generation after spouse propagation.
	Generations map[string]int

	// Chart is the positioned chart ready for rendering or serving.
	Chart *chart.Chart

	// DatasetHash is the content hash of the raw dataset document.
	DatasetHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PersonCount    int
	UnitCount      int
	ConnectorCount int
	SpousePasses   int // fixed-point passes until convergence
	LoadTime       time.Duration
	ComputeTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DatasetHit bool // Whether the dataset document came from cache
	ChartHit   bool // Whether the assembled chart came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForCompute(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for dataset loading.
func (o *Options) ValidateForLoad() error {
	if o.URL == "" && o.Path == "" {
		return fmt.Errorf("url or path is required")
	}
	if o.URL != "" && o.Path != "" {
		return fmt.Errorf("url and path are mutually exclusive")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetComputeDefaults sets default values for chart computation.
func (o *Options) SetComputeDefaults() {
	if o.Orientation == "" {
		o.Orientation = DefaultOrientation
	}
	if o.NodeWidth == 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.GapX == 0 {
		o.GapX = DefaultGapX
	}
	if o.GapY == 0 {
		o.GapY = DefaultGapY
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForCompute validates and sets defaults for chart computation.
func (o *Options) ValidateForCompute() error {
	o.SetComputeDefaults()
	if err := kcerrors.ValidateOrientation(o.Orientation); err != nil {
		return err
	}
	if o.NodeWidth < 0 || o.NodeHeight < 0 || o.GapX < 0 || o.GapY < 0 {
		return kcerrors.New(kcerrors.ErrCodeInvalidOptions, "node sizes and gaps must be non-negative")
	}
	return nil
}

// LayoutConfig converts the options into a layout engine config.
// Call after defaults are set; the orientation string is assumed valid.
func (o *Options) LayoutConfig() chart.Config {
	orientation, _ := chart.ParseOrientation(o.Orientation)
	return chart.Config{
		Orientation: orientation,
		NodeWidth:   o.NodeWidth,
		NodeHeight:  o.NodeHeight,
		GapX:        o.GapX,
		GapY:        o.GapY,
	}
}

// ChartKeyOpts returns cache key options for the assembled chart.
func (o *Options) ChartKeyOpts() cache.ChartKeyOpts {
	return cache.ChartKeyOpts{
		Orientation: o.Orientation,
		NodeWidth:   o.NodeWidth,
		NodeHeight:  o.NodeHeight,
		GapX:        o.GapX,
		GapY:        o.GapY,
		Filter:      o.Filter,
	}
}
