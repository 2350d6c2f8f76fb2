package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/eval"
	"github.com/matzehuels/flowscope/pkg/pipeline"
)

// evaluateCommand creates the evaluate command.
func (c *CLI) evaluateCommand() *cobra.Command {
	var (
		csvPath     string
		noCache     bool
		refresh     bool
		interactive bool
		settings    settingsFlags
	)

	cmd := &cobra.Command{
		Use:   "evaluate [graph.json]",
		Short: "Score the layout quality of a dataflow graph document",
		Long: `Score the layout quality of a dataflow graph document.

The document is laid out (or read from cache) and every scope is scored
with geometric quality metrics: edge bends, length statistics,
orthogonality, node density, symmetry, force-model tension and edge
bundling distances.

With --csv the per-scope metric rows are accumulated and written as a
CSV table for external analysis. With --interactive the reports open in
a browsable terminal view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.resolve(cmd)
			if err != nil {
				return err
			}
			opts := pipeline.Options{
				Input:    args[0],
				Settings: s,
				Evaluate: true,
				Refresh:  refresh,
				Formats:  []string{"dot"},
				Logger:   c.Logger,
			}
			return c.runEvaluate(cmd.Context(), opts, csvPath, noCache, interactive)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "write per-scope metric rows to a CSV file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse reports interactively")
	settings.register(cmd)

	return cmd
}

// runEvaluate executes the pipeline with evaluation and presents the
// per-scope reports.
func (c *CLI) runEvaluate(ctx context.Context, opts pipeline.Options, csvPath string, noCache, interactive bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Evaluating layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Evaluation failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	scopes := sortedScopeIDs(result.Reports)

	if csvPath != "" {
		if err := writeReportsCSV(result.Reports, scopes, csvPath); err != nil {
			return err
		}
		printSuccess("Evaluation complete")
		printFile(csvPath)
		printStats(result.Stats.NodeCount, len(scopes), result.CacheInfo.ReportHit)
		return nil
	}

	if interactive {
		model := newReportBrowser(scopes, result.Reports)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("interactive view: %w", err)
		}
		return nil
	}

	printSuccess("Evaluation complete")
	printStats(result.Stats.NodeCount, len(scopes), result.CacheInfo.ReportHit)
	printNewline()
	for _, id := range scopes {
		printReport(id, result.Reports[id])
	}
	return nil
}

// sortedScopeIDs returns the scope IDs in stable lexical order.
func sortedScopeIDs(reports map[string]eval.Report) []string {
	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// printReport prints one scope's metric columns.
func printReport(scope string, r eval.Report) {
	fmt.Println(StyleTitle.Render(scope))
	for _, col := range r.Columns() {
		printKeyValue(col.Name, fmt.Sprintf("%.4g", col.Value))
	}
	printNewline()
}

// writeReportsCSV accumulates every scope's columns into a stats
// collector and writes them as CSV.
func writeReportsCSV(reports map[string]eval.Report, scopes []string, path string) error {
	collector := eval.NewStatsCollector()
	for _, id := range scopes {
		collector.AppendReport(reports[id])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return collector.WriteCSV(f)
}
