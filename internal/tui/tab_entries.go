package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahilbhatiani/net-worth-tracker/internal/cli"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

// entriesState tracks the Entries tab selection. The list is shown newest
// first; cursor indexes into that order.
type entriesState struct {
	cursor int
	offset int
}

// entriesChrome is the header + status + card border rows around the list.
const entriesChrome = 8

func (a App) newestFirst() []model.Entry {
	return cli.Recent(a.doc.Entries, len(a.doc.Entries))
}

func (a App) entriesListHeight() int {
	return max(a.height-entriesChrome, 1)
}

func (a *App) clampEntriesCursor() {
	n := len(a.doc.Entries)
	a.entries.cursor = max(min(a.entries.cursor, n-1), 0)

	h := a.entriesListHeight()
	if a.entries.cursor < a.entries.offset {
		a.entries.offset = a.entries.cursor
	}
	if a.entries.cursor >= a.entries.offset+h {
		a.entries.offset = a.entries.cursor - h + 1
	}
	a.entries.offset = max(min(a.entries.offset, n-h), 0)
}

func (a *App) moveEntriesCursor(delta int) {
	a.entries.cursor += delta
	a.clampEntriesCursor()
}

func (a App) updateEntriesKey(key string) (App, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.moveEntriesCursor(1)
	case "k", "up":
		a.moveEntriesCursor(-1)
	case "g", "home":
		a.entries.cursor = 0
		a.clampEntriesCursor()
	case "G", "end":
		a.entries.cursor = len(a.doc.Entries) - 1
		a.clampEntriesCursor()
	case "ctrl+d", "pgdown":
		a.moveEntriesCursor(a.entriesListHeight() / 2)
	case "ctrl+u", "pgup":
		a.moveEntriesCursor(-a.entriesListHeight() / 2)
	case "d", "delete":
		list := a.newestFirst()
		if len(list) == 0 {
			return a, nil, true
		}
		e := list[a.entries.cursor]
		if a.st.RemoveEntry(e.ID) {
			a.refresh()
			a.setMessage("Deleted "+a.entryLabel(e), statusOK)
		}
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) renderEntriesTab(cw, h int) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(cw - 2).
		Padding(0, 1)

	titleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	list := a.newestFirst()
	innerW := cw - 4
	title := titleStyle.Render(fmt.Sprintf("Entries (%d)", len(list)))

	if len(list) == 0 {
		return cardStyle.Render(title + "\n" + mutedStyle.Render("No entries yet. Press n to add one."))
	}

	notesW := max(innerW-12-16-12, 8)
	header := headStyle.Render(fmt.Sprintf("%-12s%16s  %-*s%8s", "Date", "Amount", notesW, "Notes", "ID"))

	rows := make([]string, len(list))
	for i, e := range list {
		rows[i] = a.entryRow(e, i == a.entries.cursor, notesW, innerW)
	}

	vp := viewport.New(innerW, max(min(h-entriesChrome+4, len(rows)), 1))
	vp.SetContent(strings.Join(rows, "\n"))
	vp.SetYOffset(a.entries.offset)

	footer := mutedStyle.Render("j/k move · d delete · n new")
	return cardStyle.Render(title + "\n" + header + "\n" + vp.View() + "\n" + footer)
}

func (a App) entryRow(e model.Entry, selected bool, notesW, width int) string {
	t := theme.Active
	bg := t.Surface
	if selected {
		bg = t.SurfaceHover
	}
	style := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(bg)
	if selected {
		style = style.Bold(true)
	}
	id := e.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	line := fmt.Sprintf("%-12s%16s  %-*s%8s",
		e.Date.String(), cli.FormatCurrencyCents(e.Amount), notesW, truncStr(e.Notes, notesW-1), id)
	return style.Width(width).Render(line)
}
