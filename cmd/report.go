package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/report"
)

var (
	flagReportRaw   bool
	flagReportStyle string
	flagReportWidth int
	flagReportOut   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a markdown report of entries, statistics and target",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&flagReportRaw, "raw", false, "Print markdown instead of rendering it")
	reportCmd.Flags().StringVar(&flagReportStyle, "style", "auto", "Rendering style: auto, dark, light, notty, ...")
	reportCmd.Flags().IntVar(&flagReportWidth, "width", 100, "Word wrap width")
	reportCmd.Flags().StringVarP(&flagReportOut, "output", "o", "", "Write markdown to a file")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	return withEnv(func(_ context.Context, e *env) error {
		md, err := report.New(e.st.Snapshot(), model.Today()).Markdown()
		if err != nil {
			return err
		}

		if flagReportOut != "" {
			if err := os.WriteFile(flagReportOut, []byte(md), 0o644); err != nil { //nolint:gosec // report file is user-chosen
				return fmt.Errorf("writing report: %w", err)
			}
			progressf("Wrote %s", flagReportOut)
			return nil
		}
		if flagReportRaw {
			fmt.Print(md)
			return nil
		}

		out, err := report.Render(md, flagReportStyle, flagReportWidth)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	})
}
