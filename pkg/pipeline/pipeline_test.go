package pipeline

import (
	"testing"

	"github.com/kinforge/kinchart/pkg/chart"
)

func TestOptionsValidateForLoad(t *testing.T) {
	// Missing source
	opts := Options{}
	if err := opts.ValidateForLoad(); err == nil {
		t.Error("Missing url/path should fail")
	}

	// Both sources
	opts = Options{URL: "https://example.com/f.json", Path: "f.json"}
	if err := opts.ValidateForLoad(); err == nil {
		t.Error("Both url and path should fail")
	}

	// Valid with URL
	opts = Options{URL: "https://example.com/f.json"}
	if err := opts.ValidateForLoad(); err != nil {
		t.Errorf("Valid URL options should pass: %v", err)
	}

	// Valid with path
	opts = Options{Path: "testdata/family.json"}
	if err := opts.ValidateForLoad(); err != nil {
		t.Errorf("Valid path options should pass: %v", err)
	}
}

func TestOptionsComputeDefaults(t *testing.T) {
	opts := Options{Path: "f.json"}
	opts.SetComputeDefaults()

	if opts.Orientation != DefaultOrientation {
		t.Errorf("Orientation should be %q, got %q", DefaultOrientation, opts.Orientation)
	}
	if opts.NodeWidth != DefaultNodeWidth {
		t.Errorf("NodeWidth should be %v, got %v", DefaultNodeWidth, opts.NodeWidth)
	}
	if opts.NodeHeight != DefaultNodeHeight {
		t.Errorf("NodeHeight should be %v, got %v", DefaultNodeHeight, opts.NodeHeight)
	}
	if opts.GapX != DefaultGapX || opts.GapY != DefaultGapY {
		t.Errorf("gaps should be %v/%v, got %v/%v", DefaultGapX, DefaultGapY, opts.GapX, opts.GapY)
	}
	if opts.Logger == nil {
		t.Error("Logger default should be set")
	}
}

func TestOptionsValidateForCompute(t *testing.T) {
	opts := Options{Orientation: "diagonal"}
	if err := opts.ValidateForCompute(); err == nil {
		t.Error("Invalid orientation should fail")
	}

	opts = Options{NodeWidth: -1}
	if err := opts.ValidateForCompute(); err == nil {
		t.Error("Negative node width should fail")
	}

	opts = Options{Orientation: "horizontal"}
	if err := opts.ValidateForCompute(); err != nil {
		t.Errorf("Valid options should pass: %v", err)
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Path: "f.json", Orientation: "horizontal"}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	first := opts

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if opts.Orientation != first.Orientation || opts.NodeWidth != first.NodeWidth {
		t.Error("second call changed options")
	}
}

func TestOptionsLayoutConfig(t *testing.T) {
	opts := Options{Orientation: "horizontal", NodeWidth: 100, NodeHeight: 50, GapX: 10, GapY: 20}
	opts.SetComputeDefaults()

	cfg := opts.LayoutConfig()
	if cfg.Orientation != chart.Horizontal {
		t.Errorf("Orientation = %v, want horizontal", cfg.Orientation)
	}
	if cfg.NodeWidth != 100 || cfg.NodeHeight != 50 || cfg.GapX != 10 || cfg.GapY != 20 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestOptionsChartKeyOpts(t *testing.T) {
	a := Options{Orientation: "vertical", Filter: "ada"}
	a.SetComputeDefaults()
	b := Options{Orientation: "vertical"}
	b.SetComputeDefaults()

	if a.ChartKeyOpts() == b.ChartKeyOpts() {
		t.Error("filter must be part of the chart cache key")
	}
}
