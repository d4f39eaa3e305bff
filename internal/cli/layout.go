package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kinforge/kinchart/pkg/chart"
	kcerrors "github.com/kinforge/kinchart/pkg/errors"
	"github.com/kinforge/kinchart/pkg/pipeline"
)

// layoutCommand creates the layout command for computing chart layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}
	opts.SetComputeDefaults()

	cmd := &cobra.Command{
		Use:   "layout <url-or-file>",
		Short: "Compute a positioned chart from a genealogical dataset",
		Long: `Compute a positioned chart from a genealogical dataset.

The layout command loads a dataset, assigns generations, groups married
couples into shared boxes, positions every box, and routes connectors.
The output is a chart.json file that any renderer can draw.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runChartLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.chart.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if cached")

	// Layout flags
	cmd.Flags().StringVar(&opts.Orientation, "orientation", opts.Orientation, "chart orientation: vertical (default), horizontal")
	cmd.Flags().StringVar(&opts.Filter, "filter", opts.Filter, "fuzzy name filter; keeps matches and their relatives")
	cmd.Flags().Float64Var(&opts.NodeWidth, "node-width", opts.NodeWidth, "box width")
	cmd.Flags().Float64Var(&opts.NodeHeight, "node-height", opts.NodeHeight, "box height")
	cmd.Flags().Float64Var(&opts.GapX, "gap-x", opts.GapX, "horizontal gap between boxes")
	cmd.Flags().Float64Var(&opts.GapY, "gap-y", opts.GapY, "vertical gap between generations")

	return cmd
}

// runChartLayout loads the dataset, computes the chart, and writes output.
func (c *CLI) runChartLayout(ctx context.Context, source string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	src := datasetOptions(source, opts.Refresh)
	opts.URL = src.URL
	opts.Path = src.Path
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing chart layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute chart: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = defaultOutputPath(source, ".chart.json")
	}
	if err := kcerrors.ValidatePath(outputPath); err != nil {
		return err
	}

	if err := chart.WriteFile(result.Chart, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.PersonCount, result.Stats.UnitCount, result.Stats.ConnectorCount, result.CacheInfo.ChartHit)
	printNewline()
	printNextStep("Browse", "kinchart browse "+source)

	return nil
}
