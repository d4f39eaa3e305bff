package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kinforge/kinchart/pkg/dataset"
	kcerrors "github.com/kinforge/kinchart/pkg/errors"
)

// loadCommand creates the load command for fetching and normalizing datasets.
func (c *CLI) loadCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "load <url-or-file>",
		Short: "Fetch and normalize a genealogical dataset",
		Long: `Fetch and normalize a genealogical dataset.

The load command accepts a URL or a local JSON file, tolerates both
document shapes (array of records, object keyed by ID), recovers from
malformed records, and writes the normalized dataset as canonical JSON.

Fetched documents are cached locally; use --refresh to bypass the cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLoad(cmd.Context(), args[0], output, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.normalized.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch even if cached")

	return cmd
}

// runLoad loads the dataset and writes the normalized document.
func (c *CLI) runLoad(ctx context.Context, source, output string, noCache, refresh bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := datasetOptions(source, refresh)
	opts.Logger = loggerFromContext(ctx)

	spinner := newSpinnerWithContext(ctx, "Loading dataset...")
	spinner.Start()

	s, _, cacheHit, err := runner.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return fmt.Errorf("load dataset: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if s.Len() == 0 {
		printWarning("Dataset contains no people")
	}

	outputPath := output
	if outputPath == "" {
		outputPath = defaultOutputPath(source, ".normalized.json")
	}
	if err := kcerrors.ValidatePath(outputPath); err != nil {
		return err
	}

	if err := dataset.WriteFile(s, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Load complete")
	printFile(outputPath)
	printStats(s.Len(), 0, 0, cacheHit)
	printNewline()
	printNextStep("Compute layout", "kinchart layout "+outputPath)

	return nil
}

// defaultOutputPath derives an output file name next to the input. URLs
// fall back to the last path segment.
func defaultOutputPath(source, suffix string) string {
	base := source
	if isURL(source) {
		base = source[strings.LastIndex(source, "/")+1:]
		if base == "" {
			base = "dataset.json"
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix
}
