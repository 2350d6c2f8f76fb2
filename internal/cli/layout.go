package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/flow"
	"github.com/matzehuels/flowscope/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output   string
		noCache  bool
		refresh  bool
		settings settingsFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute the layout of a dataflow graph document",
		Long: `Compute the layout of a dataflow graph document.

The layout command reads a graph document, computes positions for every
node, connector and edge, and writes the annotated document back out.
Re-running on an unchanged document with unchanged settings produces an
identical result.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.resolve(cmd)
			if err != nil {
				return err
			}
			opts := pipeline.Options{
				Input:    args[0],
				Settings: s,
				Refresh:  refresh,
				Logger:   c.Logger,
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	settings.register(cmd)

	return cmd
}

// runLayout loads the document, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	laidOut, reg, cacheHit, err := runner.LayoutWithCacheInfo(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := flow.WriteFile(laidOut, outputPath); err != nil {
		return err
	}

	scopes := 0
	if reg != nil {
		scopes = reg.Len()
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(countDocNodes(laidOut), scopes, cacheHit)
	printNewline()
	printNextStep("Evaluate", appName+" evaluate "+outputPath)

	return nil
}

// countDocNodes counts the dataflow nodes across the document for the
// stats line.
func countDocNodes(doc *flow.Graph) int {
	return countRegion(doc.Root)
}

func countRegion(r *flow.Region) int {
	if r == nil {
		return 0
	}
	total := 0
	for _, b := range r.Blocks {
		switch b.Kind {
		case flow.BlockState:
			if b.State != nil {
				total += len(b.State.Nodes)
				for _, n := range b.State.Nodes {
					total += countRegion(n.Nested)
				}
			}
		case flow.BlockRegion, flow.BlockLoop:
			total += countRegion(b.Body)
		case flow.BlockConditional:
			for _, br := range b.Branches {
				total += countRegion(br.Body)
			}
		}
	}
	return total
}
