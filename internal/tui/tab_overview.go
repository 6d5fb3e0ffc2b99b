package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sahilbhatiani/net-worth-tracker/internal/cli"
	"github.com/sahilbhatiani/net-worth-tracker/internal/pipeline"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/components"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	stats := a.stats
	var b strings.Builder

	// Row 1: Metric cards
	b.WriteString(components.MetricCardRow(a.overviewMetrics(), cw))
	b.WriteString("\n")

	if !stats.HasData() {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		b.WriteString(components.ContentCard("Getting started",
			muted.Render("No entries yet. Press n to record your first net worth snapshot."), cw))
		return b.String()
	}

	// Row 2: Actual vs target chart
	chartH := 12
	if a.isCompactLayout() {
		chartH = 8
	}
	b.WriteString(components.ContentCard("Net Worth Over Time",
		a.overviewChart(components.CardInnerWidth(cw), chartH), cw))
	b.WriteString("\n")

	// Row 3: Recent entries
	b.WriteString(components.ContentCard("Recent Entries",
		a.recentEntriesBody(components.CardInnerWidth(cw)), cw))
	return b.String()
}

func (a App) overviewMetrics() []components.Metric {
	t := theme.Active
	stats := a.stats

	change := stats.TotalChange.OrZero()
	growth := stats.AverageMonthlyGrowth.OrZero()

	metrics := []components.Metric{
		{Label: "Current Net Worth", Value: cli.FormatValue(stats.Current), Delta: cli.FormatEntryCount(stats.Entries)},
		{
			Label: "Total Change",
			Value: cli.FormatValue(stats.TotalChange),
			Delta: cli.FormatPercentChange(stats.PercentChange.OrZero()),
			Color: t.Signed(change),
		},
		{
			Label: "Avg Monthly Growth",
			Value: cli.FormatValue(stats.AverageMonthlyGrowth),
			Delta: "over " + cli.FormatMonths(stats.TimeSpanMonths),
			Color: t.Signed(growth),
		},
	}

	target := components.Metric{Label: "vs Target", Value: "n/a", Delta: "no target set", Color: t.TextDim}
	switch c := stats.Target; {
	case c != nil:
		target.Value = cli.FormatCurrency(c.Difference)
		target.Delta = "expected " + cli.FormatCurrency(c.Expected)
		target.Color = t.Signed(c.Difference)
		if c.IsAhead {
			target.Delta += " · ahead"
		} else if c.Difference < 0 {
			target.Delta += " · behind"
		}
	case a.doc.TargetSettings != nil:
		target.Delta = "starts " + a.doc.TargetSettings.StartDate.String()
	}
	return append(metrics, target)
}

// overviewChart draws the actual series with the target trajectory behind
// it. Points before the target start leave gaps in the target line.
func (a App) overviewChart(width, height int) string {
	t := theme.Active
	points, hasTarget := pipeline.ChartSeries(a.doc.Entries, a.doc.TargetSettings)

	labels := make([]string, len(points))
	actual := components.Series{Name: "Actual", Values: make([]float64, len(points)), Color: t.Cyan, Glyph: '●'}
	for i, p := range points {
		labels[i] = cli.FormatChartDate(p.Date)
		actual.Values[i] = p.Actual
	}

	series := []components.Series{actual}
	if hasTarget {
		target := components.Series{
			Name:    "Target",
			Values:  make([]float64, len(points)),
			Present: make([]bool, len(points)),
			Color:   t.Blue,
			Glyph:   '○',
		}
		for i, p := range points {
			target.Values[i], target.Present[i] = p.Target.Get()
		}
		// Actual is drawn last so it wins shared cells.
		series = []components.Series{target, actual}
	}

	return components.LineChart(labels, series, width, height)
}

func (a App) recentEntriesBody(width int) string {
	t := theme.Active
	dateStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	notesStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	recent := cli.Recent(a.doc.Entries, max(a.cfg.General.RecentEntries, 1))
	lines := make([]string, 0, len(recent))
	for _, e := range recent {
		amount := cli.FormatCurrencyCents(e.Amount)
		line := dateStyle.Render(cli.FormatChartDate(e.Date)+strings.Repeat(" ", max(12-len(cli.FormatChartDate(e.Date)), 1))) +
			amountStyle.Render(padLeft(amount, 16))
		if e.Notes != "" {
			line += space.Render("  ") + notesStyle.Render(truncStr(e.Notes, width-32))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func padLeft(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return strings.Repeat(" ", w-n) + s
	}
	return s
}
