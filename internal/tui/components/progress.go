package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

// ColorForProgress returns red/orange/yellow/green as pct approaches and
// passes 1 (on target).
func ColorForProgress(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 1:
		return t.Green
	case pct >= 0.9:
		return t.Yellow
	case pct >= 0.7:
		return t.Orange
	default:
		return t.Red
	}
}

// TargetBar renders how far actual has come toward expected as a labeled
// progress bar. The bar is full at or beyond the target; the percentage
// keeps counting past 100%.
func TargetBar(label string, actual, expected float64, labelW, barWidth int) string {
	t := theme.Active

	pct := 0.0
	if expected > 0 {
		pct = max(actual/expected, 0)
	}
	color := ColorForProgress(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	pctStr := "  n/a"
	if expected > 0 {
		pctStr = fmt.Sprintf("%4.0f%%", pct*100)
	}

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(min(pct, 1)) +
		spaceStyle.Render(" ") +
		pctStyle.Render(pctStr)
}
