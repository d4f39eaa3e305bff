package pipeline

import (
	"context"
	"time"

	"github.com/kinforge/kinchart/pkg/chart"
	"github.com/kinforge/kinchart/pkg/kin"
	"github.com/kinforge/kinchart/pkg/kin/transform"
	"github.com/kinforge/kinchart/pkg/observability"
)

// BuildChart runs the synchronous compute stages on a loaded store:
// filter, generation assignment, spouse propagation, unit partition,
// layout, and connector routing. It has no caching; the Runner wraps it
// when caching is wanted.
//
// The stages are deterministic functions of the store, so two calls
// with the same store and options produce identical charts.
func BuildChart(ctx context.Context, s *kin.Store, opts Options) (*ComputeOutput, error) {
	if err := opts.ValidateForCompute(); err != nil {
		return nil, err
	}

	work := Filter(s, opts.Filter)
	hooks := observability.Pipeline()

	gens := runStage(ctx, hooks, observability.StageGenerations, work.Len(), func() map[string]int {
		return transform.AssignGenerations(work)
	})
	passes := runStage(ctx, hooks, observability.StageSpouses, work.Len(), func() int {
		return transform.PropagateSpouseGenerations(work, gens)
	})

	units := runStage(ctx, hooks, observability.StageUnits, work.Len(), func() *chart.Units {
		return chart.BuildUnits(work, gens)
	})

	layout := runStage(ctx, hooks, observability.StageLayout, len(units.All), func() *chart.Layout {
		return chart.Build(work, units, opts.LayoutConfig())
	})

	conns := runStage(ctx, hooks, observability.StageRoute, len(units.All), func() []chart.Connector {
		return chart.Route(work, units, layout)
	})

	opts.Logger.Debug("built chart",
		"people", work.Len(),
		"units", len(units.All),
		"connectors", len(conns),
		"spouse_passes", passes)

	return &ComputeOutput{
		Chart:        chart.Assemble(work, units, layout, conns),
		Store:        work,
		Generations:  gens,
		SpousePasses: passes,
	}, nil
}

// runStage wraps a synchronous stage with observability events.
func runStage[T any](ctx context.Context, hooks observability.PipelineHooks, stage string, size int, fn func() T) T {
	hooks.OnStageStart(ctx, stage, size)
	start := time.Now()
	out := fn()
	hooks.OnStageComplete(ctx, stage, size, time.Since(start), nil)
	return out
}
