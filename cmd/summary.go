package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahilbhatiani/net-worth-tracker/internal/cli"
	"github.com/sahilbhatiani/net-worth-tracker/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Net worth statistics and target comparison",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	return withEnv(func(_ context.Context, e *env) error {
		doc := e.st.Snapshot()
		stats := pipeline.ComputeStats(doc.Entries, doc.TargetSettings)

		fmt.Println()
		fmt.Println(cli.RenderTitle("NET WORTH"))
		fmt.Println()
		fmt.Print(cli.RenderStats(stats))

		if doc.TargetSettings != nil && stats.HasData() && stats.Target == nil {
			fmt.Println(cli.Warn("  Target starts " + doc.TargetSettings.StartDate.String() + ", after the latest entry."))
		}
		if c := stats.Target; c != nil {
			fmt.Println("  " + cli.Signed(boolToSign(c.Difference >= 0), cli.FormatDifferenceLabel(c.Difference)))
		}

		if points, _ := pipeline.ChartSeries(doc.Entries, doc.TargetSettings); len(points) > 1 {
			fmt.Println()
			fmt.Println("  " + cli.RenderSparkline(pipeline.Actuals(points)))
		}
		fmt.Println()

		if recent := cli.Recent(doc.Entries, e.cfg.General.RecentEntries); len(recent) > 0 {
			fmt.Print(cli.RenderTable(cli.EntryTable("Recent Entries", recent)))
		}
		return nil
	})
}

func boolToSign(ok bool) float64 {
	if ok {
		return 1
	}
	return -1
}
