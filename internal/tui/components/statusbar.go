package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

// StatusKind selects the color of the status bar message.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusOK
	StatusError
)

// RenderStatusBar renders the bottom status bar: key hints on the left, an
// optional message in the middle and the sync state on the right.
func RenderStatusBar(width int, message string, kind StatusKind, syncState string) string {
	t := theme.Active

	base := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	msgStyle := base
	switch kind {
	case StatusOK:
		msgStyle = msgStyle.Foreground(t.Green)
	case StatusError:
		msgStyle = msgStyle.Foreground(t.Red)
	}

	left := base.Render(" [?]help  [n]ew entry  [q]uit")
	if message != "" {
		left += base.Render("  ") + msgStyle.Render(message)
	}
	right := base.Render(syncState + " ")

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return left + base.Render(strings.Repeat(" ", padding)) + right
}
