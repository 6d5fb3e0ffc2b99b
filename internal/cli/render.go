package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/pipeline"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorOrange    = lipgloss.Color("#DA702C")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	gainStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	lossStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	targetStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table is a titled, rounded-border table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Right   []int // column indexes rendered right-aligned
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders t with a header row, or "" when there is nothing to show.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	right := make(map[int]bool, len(t.Right))
	for _, c := range t.Right {
		right[c] = true
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			st := valueStyle
			if row == table.HeaderRow {
				st = headerStyle
			}
			st = st.Padding(0, 1)
			if right[col] {
				st = st.Align(lipgloss.Right)
			}
			return st
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderSparkline generates a unicode block sparkline from a series of
// values, scaled between the series minimum and maximum.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// Signed colors s green when v is non-negative and red otherwise.
func Signed(v float64, s string) string {
	if v >= 0 {
		return gainStyle.Render(s)
	}
	return lossStyle.Render(s)
}

// Muted renders s in the secondary text color.
func Muted(s string) string { return mutedStyle.Render(s) }

// Warn renders s in the warning color.
func Warn(s string) string { return warnStyle.Render(s) }

// RenderStats renders the statistics panel: current net worth, the target
// comparison when there is one, change figures and the entry count.
func RenderStats(st pipeline.Statistics) string {
	if !st.HasData() {
		return mutedStyle.Render("  No entries yet. Add one with `networth add <amount>`.") + "\n"
	}

	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %-24s %s\n", mutedStyle.Render(label), value)
	}

	row("Current Net Worth", valueStyle.Bold(true).Render(FormatValue(st.Current)))
	if c := st.Target; c != nil {
		row("vs Target", Signed(boolSign(c.IsAhead), FormatCurrency(c.Difference)))
		row("Expected", targetStyle.Render(FormatCurrency(c.Expected)))
	}
	total := st.TotalChange.OrZero()
	row("Total Change", Signed(total, FormatCurrency(total)))
	pct := st.PercentChange.OrZero()
	row("% Change", Signed(pct, FormatPercentChange(pct)))
	growth := st.AverageMonthlyGrowth.OrZero()
	row("Average Monthly Growth", Signed(growth, FormatCurrency(growth)))
	row("Time Span", valueStyle.Render(FormatMonths(st.TimeSpanMonths)))
	b.WriteString("\n  ")
	b.WriteString(dimStyle.Render(FormatEntryCount(st.Entries)))
	b.WriteString("\n")
	return b.String()
}

func boolSign(ok bool) float64 {
	if ok {
		return 1
	}
	return -1
}

// EntryTable lays entries out as Date, Amount, Notes and short ID columns.
func EntryTable(title string, entries []model.Entry) Table {
	return Table{
		Title:   title,
		Headers: []string{"Date", "Amount", "Notes", "ID"},
		Rows:    EntryRows(entries),
		Right:   []int{1},
	}
}

// EntryRows converts entries to table rows: date, amount with cents, notes.
func EntryRows(entries []model.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Date.String(), FormatCurrencyCents(e.Amount), e.Notes, shortID(e.ID)})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
