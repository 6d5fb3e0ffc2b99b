package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahilbhatiani/net-worth-tracker/internal/cli"
	"github.com/sahilbhatiani/net-worth-tracker/internal/pipeline"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/components"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

func (a App) updateTargetKey(key string) (App, tea.Cmd, bool) {
	switch key {
	case "s", "enter":
		return a, a.openForm(formTarget), true
	case "c":
		if a.doc.TargetSettings == nil {
			return a, nil, true
		}
		a.st.ClearTarget()
		a.refresh()
		a.setMessage("Target cleared", statusOK)
		return a, nil, true
	}
	return a, nil, false
}

func (a App) renderTargetTab(cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	target := a.doc.TargetSettings
	if target == nil {
		return components.ContentCard("Savings Target",
			labelStyle.Render("No target set.")+"\n\n"+
				dimStyle.Render("Press s to define a linear savings plan: a start date, a start amount and how much you save per year."),
			cw)
	}

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-20s", label)) + valueStyle.Render(value)
	}

	var plan strings.Builder
	plan.WriteString(row("Annual savings", cli.FormatCurrency(target.AnnualSavings)+"/year"))
	plan.WriteString("\n")
	plan.WriteString(row("Daily rate", cli.FormatCurrencyCents(pipeline.DailyRate(*target))+"/day"))
	plan.WriteString("\n")
	plan.WriteString(row("Start date", target.StartDate.String()))
	plan.WriteString("\n")
	plan.WriteString(row("Start amount", cli.FormatCurrency(target.StartAmount)))
	plan.WriteString("\n")
	today := a.today()
	expectedToday := "not started"
	if v, ok := pipeline.Expected(*target, today).Get(); ok {
		expectedToday = cli.FormatCurrency(v)
	}
	plan.WriteString(row("Expected today", expectedToday))

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw}
	}

	cards := []string{components.ContentCard("Savings Target", plan.String(), halves[0])}
	progressW := cw
	if len(halves) > 1 {
		progressW = halves[1]
	}
	cards = append(cards, components.ContentCard("Progress", a.targetProgressBody(components.CardInnerWidth(progressW)), progressW))

	var out string
	if len(halves) > 1 {
		out = components.CardRow(cards)
	} else {
		out = cards[0] + "\n" + cards[1]
	}
	return out + "\n" + dimStyle.Render(" s edit · c clear")
}

func (a App) targetProgressBody(width int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	c := a.stats.Target
	if c == nil {
		if !a.stats.HasData() {
			return dimStyle.Render("Add an entry to measure progress.")
		}
		return dimStyle.Render("The latest entry is before the target start date.")
	}

	diffStyle := lipgloss.NewStyle().Foreground(t.Signed(c.Difference)).Background(t.Surface).Bold(true)

	barW := max(width-16-6, 10)
	var b strings.Builder
	b.WriteString(components.TargetBar("Actual/Expected", c.Actual, c.Expected, 16, barW))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("As of " + cli.FormatChartDate(c.Date)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Actual %s · Expected %s",
		cli.FormatCurrency(c.Actual), cli.FormatCurrency(c.Expected))))
	b.WriteString("\n")
	b.WriteString(diffStyle.Render(cli.FormatDifferenceLabel(c.Difference)))
	if pct, ok := c.PercentDiff.Get(); ok {
		b.WriteString(labelStyle.Render("  " + cli.FormatPercentChange(pct)))
	}
	return b.String()
}
