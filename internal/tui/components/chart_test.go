package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLineChart_Empty(t *testing.T) {
	if LineChart(nil, []Series{{Values: []float64{1}}}, 40, 8) != "" {
		t.Error("chart without labels should be empty")
	}
	s := Series{Values: []float64{1, 2}, Present: []bool{false, false}}
	if LineChart([]string{"a", "b"}, []Series{s}, 40, 8) != "" {
		t.Error("chart without any present point should be empty")
	}
}

func TestLineChart_PlotsBothSeriesWithGaps(t *testing.T) {
	labels := []string{"1/1/2024", "2/1/2024", "3/1/2024", "4/1/2024"}
	actual := Series{Name: "Actual", Values: []float64{1000, 1100, 1050, 1300}, Glyph: '●', Color: "#00ff00"}
	target := Series{
		Name:    "Target",
		Values:  []float64{0, 1000, 1100, 1200},
		Present: []bool{false, true, true, true},
		Glyph:   '○',
		Color:   "#0000ff",
	}

	out := LineChart(labels, []Series{target, actual}, 60, 10)
	plain := stripANSI(out)

	if got := strings.Count(plain, "●"); got != 5 { // 4 points + legend
		t.Errorf("actual glyphs = %d, want 5:\n%s", got, plain)
	}
	if got := strings.Count(plain, "○"); got < 2 || got > 4 {
		t.Errorf("target glyphs = %d, want 2..4 (overlaps allowed):\n%s", got, plain)
	}
	for _, want := range []string{"1/1/2024", "4/1/2024", "Actual", "Target"} {
		if !strings.Contains(plain, want) {
			t.Errorf("chart missing %q:\n%s", want, plain)
		}
	}
	for i, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 60 {
			t.Errorf("line %d width %d exceeds 60", i, w)
		}
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := map[float64]string{
		0:         "$0",
		950:       "$950",
		1500:      "$1.5k",
		2000:      "$2k",
		-25000:    "-$25k",
		3_200_000: "$3.2M",
	}
	for in, want := range tests {
		if got := formatChartLabel(in); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	for active := range Tabs {
		bar := stripANSI(RenderTabBar(active, 200))
		total := 0
		for i, tab := range Tabs {
			total += TabVisualWidth(tab, i == active)
		}
		total += len(Tabs) - 1 // separators
		if got := len([]rune(strings.TrimRight(bar, " "))); got != total && got != total-1 {
			t.Errorf("active=%d: rendered %d cols, widths sum to %d", active, got, total)
		}
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
