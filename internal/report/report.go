// Package report renders a markdown net-worth report and its terminal
// presentation.
package report

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"

	"github.com/sahilbhatiani/net-worth-tracker/internal/cli"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/pipeline"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"value":     cli.FormatValue,
	"currency":  cli.FormatCurrency,
	"cents":     cli.FormatCurrencyCents,
	"percent":   func(v pipeline.Value) string { return cli.FormatPercentChange(v.OrZero()) },
	"months":    cli.FormatMonths,
	"date":      func(d model.Date) string { return d.String() },
	"chartDate": cli.FormatChartDate,
	"count":     cli.FormatEntryCount,
	"cell":      cell,
}

var reportTmpl = template.Must(template.New("report.md").Funcs(funcs).ParseFS(templates, "templates/report.md"))

// Report is the data behind one rendered report.
type Report struct {
	Generated model.Date
	Stats     pipeline.Statistics
	Target    *model.TargetSettings
	Entries   []model.Entry
	Sparkline string
}

// New builds a report for doc as of today.
func New(doc model.Document, today model.Date) Report {
	points, _ := pipeline.ChartSeries(doc.Entries, doc.TargetSettings)
	return Report{
		Generated: today,
		Stats:     pipeline.ComputeStats(doc.Entries, doc.TargetSettings),
		Target:    doc.TargetSettings,
		Entries:   doc.Entries,
		Sparkline: cli.RenderSparkline(pipeline.Actuals(points)),
	}
}

// Markdown renders r as GitHub-flavored markdown.
func (r Report) Markdown() (string, error) {
	var b strings.Builder
	if err := reportTmpl.Execute(&b, r); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return b.String(), nil
}

// Render styles markdown for the terminal. style is a glamour standard
// style name ("dark", "light", "notty", ...) or "auto".
func Render(markdown, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// cell makes s safe inside a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
