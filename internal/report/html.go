package report

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"a11y-checker/internal/models"
)

//go:embed templates/report.html.tmpl
var reportTemplate string

// markdown renders issue prose. Without html.WithUnsafe goldmark drops raw
// HTML from the source, leaving an "omitted" comment in its place.
var markdown = goldmark.New()

// HTMLReporter writes a self-contained static HTML page.
type HTMLReporter struct {
	dir  string
	tmpl *template.Template
}

func NewHTMLReporter(dir string) *HTMLReporter {
	return &HTMLReporter{dir: dir, tmpl: Template()}
}

// Template returns the parsed report page. The "page" block renders a single
// PageHealthReport and is reused by the serve command.
func Template() *template.Template {
	return template.Must(template.New("report").Funcs(FuncMap()).Parse(reportTemplate))
}

// FuncMap holds the helpers the report template needs.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown":   renderMarkdown,
		"lower":      func(s models.Severity) string { return strings.ToLower(string(s)) },
		"levels":     func() []models.WCAGLevel { return models.WCAGLevels },
		"severities": func() []models.Severity { return models.Severities },
		"scoreClass": scoreClass,
	}
}

func (r *HTMLReporter) Format() string { return models.FormatHTML }

func (r *HTMLReporter) Path(report *models.HealthCheckReport) string {
	return filepath.Join(r.dir, FileName(report.Summary.Timestamp, "html"))
}

func (r *HTMLReporter) Generate(ctx context.Context, report *models.HealthCheckReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return writeReport(r.Path(report), buf.Bytes())
}

func renderMarkdown(s string) template.HTML {
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

func scoreClass(score int) string {
	switch {
	case score >= 90:
		return "good"
	case score >= 50:
		return "fair"
	default:
		return "poor"
	}
}
