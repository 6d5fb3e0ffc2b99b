package report

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
)

// headings returns the text of every heading in markdown, in order.
func headings(t *testing.T, markdown string) []string {
	t.Helper()
	source := []byte(markdown)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var out []string
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			var b strings.Builder
			for i := 0; i < h.Lines().Len(); i++ {
				line := h.Lines().At(i)
				b.Write(line.Value(source))
			}
			out = append(out, b.String())
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func codeBlocks(t *testing.T, markdown string) int {
	t.Helper()
	root := goldmark.DefaultParser().Parse(text.NewReader([]byte(markdown)))
	n := 0
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if _, ok := node.(*ast.FencedCodeBlock); ok && entering {
			n++
		}
		return ast.WalkContinue, nil
	})
	return n
}

func sampleDoc() model.Document {
	return model.Document{
		Entries: []model.Entry{
			{ID: "1", Amount: 1000, Date: model.NewDate(2024, 1, 1)},
			{ID: "2", Amount: 1500, Date: model.NewDate(2024, 7, 1), Notes: "bonus | raise"},
		},
		TargetSettings: &model.TargetSettings{AnnualSavings: 3652.5, StartDate: model.NewDate(2024, 1, 1), StartAmount: 1000},
	}
}

func TestMarkdown_Sections(t *testing.T) {
	md, err := New(sampleDoc(), model.NewDate(2024, 8, 1)).Markdown()
	if err != nil {
		t.Fatal(err)
	}

	got := headings(t, md)
	want := []string{"Net Worth Report", "Summary", "Target", "Entries"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("headings = %v, want %v", got, want)
	}
	if codeBlocks(t, md) != 1 {
		t.Errorf("want one sparkline code block:\n%s", md)
	}

	for _, s := range []string{
		"Generated 2024-08-01. 2 entries tracked.",
		"| Current net worth | $1,500 |",
		"| % change | +50.0% |",
		"**$3,653/year** from 1/1/2024",
		"| 7/1/2024 | $1,500.00 | bonus \\| raise |",
	} {
		if !strings.Contains(md, s) {
			t.Errorf("markdown missing %q:\n%s", s, md)
		}
	}
}

func TestMarkdown_Empty(t *testing.T) {
	md, err := New(model.Document{}, model.NewDate(2024, 8, 1)).Markdown()
	if err != nil {
		t.Fatal(err)
	}
	got := headings(t, md)
	if len(got) != 1 || got[0] != "Net Worth Report" {
		t.Errorf("empty report headings = %v", got)
	}
	if !strings.Contains(md, "0 entries tracked") {
		t.Errorf("empty report:\n%s", md)
	}
}

func TestMarkdown_TargetNotStarted(t *testing.T) {
	doc := sampleDoc()
	doc.TargetSettings.StartDate = model.NewDate(2025, 1, 1)
	md, err := New(doc, model.NewDate(2024, 8, 1)).Markdown()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "before the target start date") {
		t.Errorf("missing not-started note:\n%s", md)
	}
}

func TestRender(t *testing.T) {
	md, err := New(sampleDoc(), model.NewDate(2024, 8, 1)).Markdown()
	if err != nil {
		t.Fatal(err)
	}
	out, err := Render(md, "notty", 80)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Net Worth Report") || !strings.Contains(out, "$1,500") {
		t.Errorf("rendered output:\n%s", out)
	}
}
