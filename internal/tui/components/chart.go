package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

// Series is one line of a LineChart. Present[i] false leaves a gap at i.
type Series struct {
	Name    string
	Values  []float64
	Present []bool
	Color   lipgloss.Color
	Glyph   rune
}

func (s Series) at(i int) (float64, bool) {
	if i >= len(s.Values) || (s.Present != nil && (i >= len(s.Present) || !s.Present[i])) {
		return 0, false
	}
	return s.Values[i], true
}

// Sparkline renders a unicode sparkline from values, scaled between their
// minimum and maximum.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

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

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(blocks)-1))
		buf.WriteRune(blocks[max(0, min(idx, len(blocks)-1))])
	}

	return style.Render(buf.String())
}

// LineChart plots series that share the x positions given by labels. Each
// point is drawn with its series glyph and consecutive points of a series
// are joined with dots; later series draw over earlier ones.
func LineChart(labels []string, series []Series, width, height int) string {
	n := len(labels)
	if n == 0 || len(series) == 0 {
		return ""
	}
	t := theme.Active
	height = max(height, 3)

	lo, hi, found := math.Inf(1), math.Inf(-1), false
	for _, s := range series {
		for i := 0; i < n; i++ {
			if v, ok := s.at(i); ok {
				lo, hi, found = min(lo, v), max(hi, v), true
			}
		}
	}
	if !found {
		return ""
	}
	step := chartTickStep(hi - lo)
	floor := math.Floor(lo/step) * step
	ceiling := math.Ceil(hi/step) * step
	if ceiling == floor {
		ceiling = floor + step
	}

	yLabels := []string{formatChartLabel(ceiling), formatChartLabel((ceiling + floor) / 2), formatChartLabel(floor)}
	yLabelW := 0
	for _, l := range yLabels {
		yLabelW = max(yLabelW, len(l))
	}
	chartW := max(width-yLabelW-1, 5)

	col := func(i int) int {
		if n == 1 {
			return chartW / 2
		}
		return i * (chartW - 1) / (n - 1)
	}
	row := func(v float64) int {
		r := int(math.Round((ceiling - v) / (ceiling - floor) * float64(height-1)))
		return max(0, min(r, height-1))
	}

	grid := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", chartW))
		colors[r] = make([]lipgloss.Color, chartW)
	}
	plot := func(r, c int, ch rune, color lipgloss.Color) {
		grid[r][c] = ch
		colors[r][c] = color
	}

	for _, s := range series {
		prevC, prevR, havePrev := 0, 0, false
		for i := 0; i < n; i++ {
			v, ok := s.at(i)
			if !ok {
				havePrev = false
				continue
			}
			c, r := col(i), row(v)
			if havePrev {
				for x := prevC + 1; x < c; x++ {
					y := prevR + (r-prevR)*(x-prevC)/(c-prevC)
					plot(y, x, '·', s.Color)
				}
			}
			prevC, prevR, havePrev = c, r, true
		}
		for i := 0; i < n; i++ {
			if v, ok := s.at(i); ok {
				plot(row(v), col(i), s.Glyph, s.Color)
			}
		}
	}

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blankStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for r := 0; r < height; r++ {
		label := ""
		switch r {
		case 0:
			label = yLabels[0]
		case (height - 1) / 2:
			label = yLabels[1]
		case height - 1:
			label = yLabels[2]
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))
		for c := 0; c < chartW; c++ {
			if colors[r][c] == "" {
				b.WriteString(blankStyle.Render(string(grid[r][c])))
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(colors[r][c]).Background(t.Surface).Render(string(grid[r][c])))
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(strings.Repeat(" ", yLabelW) + "└" + strings.Repeat("─", chartW)))
	b.WriteString("\n")
	b.WriteString(axisStyle.Render(strings.Repeat(" ", yLabelW+1) + xAxisLabels(labels, col, chartW)))

	legend := make([]string, 0, len(series))
	for _, s := range series {
		legend = append(legend, lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface).Render(string(s.Glyph)+" "+s.Name))
	}
	b.WriteString("\n")
	b.WriteString(blankStyle.Render(strings.Repeat(" ", yLabelW+1)))
	b.WriteString(strings.Join(legend, blankStyle.Render("   ")))

	return b.String()
}

// xAxisLabels places as many labels as fit without overlapping, always
// keeping the first and last.
func xAxisLabels(labels []string, col func(int) int, width int) string {
	buf := []rune(strings.Repeat(" ", width))
	n := len(labels)
	put := func(i int, lastEnd int) int {
		lbl := []rune(labels[i])
		pos := col(i)
		if pos+len(lbl) > width {
			pos = width - len(lbl)
		}
		if pos <= lastEnd || pos < 0 {
			return lastEnd
		}
		copy(buf[pos:], lbl)
		return pos + len(lbl)
	}

	lastEnd := put(0, -1)
	var tail int
	if n > 1 {
		tail = col(n-1) - len([]rune(labels[n-1]))
	} else {
		tail = width
	}
	for i := 1; i < n-1; i++ {
		if col(i) > lastEnd+1 && col(i)+len([]rune(labels[i])) < tail {
			lastEnd = put(i, lastEnd+1)
		}
	}
	if n > 1 {
		put(n-1, lastEnd)
	}
	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(span float64) float64 {
	if span <= 0 {
		return 1
	}
	rough := span / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// formatChartLabel abbreviates a dollar amount for the y-axis.
func formatChartLabel(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	var s string
	switch {
	case v >= 1e9:
		s = trimZero(fmt.Sprintf("%.1f", v/1e9)) + "B"
	case v >= 1e6:
		s = trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		s = trimZero(fmt.Sprintf("%.1f", v/1e3)) + "k"
	default:
		s = fmt.Sprintf("%.0f", v)
	}
	return sign + "$" + s
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
