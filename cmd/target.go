package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahilbhatiani/net-worth-tracker/internal/cli"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/pipeline"
)

var (
	flagTargetAnnual string
	flagTargetStart  string
	flagTargetAmount string
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Show or change the savings target",
	Args:  cobra.NoArgs,
	RunE:  runTargetShow,
}

var targetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the savings target and today's expected value",
	Args:  cobra.NoArgs,
	RunE:  runTargetShow,
}

var targetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the savings target",
	Long: "Set the savings target. Unset flags keep the current target's values,\n" +
		"or default to the latest entry's date and amount.",
	Example: "  networth target set --annual 24000\n" +
		"  networth target set --annual 12000 --start 2024-01-01 --amount 50000",
	Args: cobra.NoArgs,
	RunE: runTargetSet,
}

var targetClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the savings target",
	Args:  cobra.NoArgs,
	RunE:  runTargetClear,
}

func init() {
	targetSetCmd.Flags().StringVar(&flagTargetAnnual, "annual", "", "Annual savings amount")
	targetSetCmd.Flags().StringVar(&flagTargetStart, "start", "", "Start date, YYYY-MM-DD")
	targetSetCmd.Flags().StringVar(&flagTargetAmount, "amount", "", "Net worth on the start date")

	targetCmd.AddCommand(targetShowCmd, targetSetCmd, targetClearCmd)
	rootCmd.AddCommand(targetCmd)
}

func runTargetShow(_ *cobra.Command, _ []string) error {
	return withEnv(func(_ context.Context, e *env) error {
		t := e.st.Target()
		if t == nil {
			fmt.Println(cli.Muted("  No target set. Use `networth target set --annual <amount>`."))
			return nil
		}
		printTarget(*t, e.st.Entries(), model.Today())
		return nil
	})
}

func printTarget(t model.TargetSettings, entries []model.Entry, today model.Date) {
	row := func(label, value string) {
		fmt.Printf("  %-20s %s\n", cli.Muted(label), value)
	}
	fmt.Println()
	row("Annual savings", cli.FormatCurrency(t.AnnualSavings)+"/year")
	row("Daily rate", cli.FormatCurrencyCents(pipeline.DailyRate(t))+"/day")
	row("Start date", t.StartDate.String())
	row("Start amount", cli.FormatCurrency(t.StartAmount))
	if v, ok := pipeline.Expected(t, today).Get(); ok {
		row("Expected today", cli.FormatCurrency(v))
	} else {
		row("Expected today", cli.Muted("not started"))
	}

	stats := pipeline.ComputeStats(entries, &t)
	if c := stats.Target; c != nil {
		row("Latest entry", fmt.Sprintf("%s on %s", cli.FormatCurrency(c.Actual), c.Date))
		row("Expected then", cli.FormatCurrency(c.Expected))
		label := cli.FormatDifferenceLabel(c.Difference)
		if pct, ok := c.PercentDiff.Get(); ok {
			label += " " + cli.FormatPercentChange(pct)
		}
		fmt.Println()
		fmt.Println("  " + cli.Signed(boolToSign(c.Difference >= 0), label))
	}
	fmt.Println()
}

func runTargetSet(_ *cobra.Command, _ []string) error {
	return withEnv(func(_ context.Context, e *env) error {
		d := model.TargetDefaults(e.st.Target(), e.st.Entries(), model.Today())
		annual := firstNonEmpty(flagTargetAnnual, d.AnnualSavings)
		start := firstNonEmpty(flagTargetStart, d.StartDate)
		amount := firstNonEmpty(flagTargetAmount, d.StartAmount)

		t, err := model.ParseTarget(annual, start, amount)
		if err != nil {
			return err
		}
		e.st.SetTarget(t)
		fmt.Printf("  Target: %s/year from %s starting at %s\n",
			cli.FormatCurrency(t.AnnualSavings), t.StartDate, cli.FormatCurrency(t.StartAmount))
		return nil
	})
}

func runTargetClear(_ *cobra.Command, _ []string) error {
	return withEnv(func(_ context.Context, e *env) error {
		if e.st.Target() == nil {
			fmt.Println(cli.Muted("  No target set."))
			return nil
		}
		e.st.ClearTarget()
		fmt.Println("  Target cleared")
		return nil
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
