package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11y-checker/internal/models"
)

func sampleReport() *models.HealthCheckReport {
	started := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	issue := models.NewIssue(models.CheckerAltText, models.SeverityError, models.LevelA,
		"Image is missing alt text",
		"Screen readers announce the file name instead. Add a `alt` attribute.",
		models.WithElement(models.Element{Selector: "#hero > img:nth-of-type(1)", TagName: "img"}),
		models.WithLocation(models.Location{XPath: "/html[1]/body[1]/main[1]/img[1]"}),
		models.WithSuggestedFix("Add `alt=\"...\"` describing the image, or `alt=\"\"` if decorative."),
	)
	issues := []models.AccessibilityIssue{issue}

	page := models.PageHealthReport{
		URL:              "https://example.com/gallery",
		Timestamp:        started,
		DurationMS:       420,
		TotalIssues:      1,
		IssuesBySeverity: models.CountBySeverity(issues),
		IssuesByType:     models.CountByType(issues),
		Compliance:       models.Compliance(issues),
		Issues:           issues,
		Score:            models.CalculateScore(issues),
	}
	clean := models.PageHealthReport{
		URL:              "https://example.com/",
		Timestamp:        started,
		IssuesBySeverity: models.CountBySeverity(nil),
		IssuesByType:     models.CountByType(nil),
		Compliance:       models.Compliance(nil),
		Issues:           []models.AccessibilityIssue{},
		Score:            100,
	}

	pages := []models.PageHealthReport{clean, page}
	return &models.HealthCheckReport{
		Summary: models.Summary{
			TotalPages:   2,
			TotalIssues:  1,
			OverallScore: models.MeanScore(pages),
			Timestamp:    started,
			DurationMS:   900,
		},
		Pages:  pages,
		Config: models.HealthCheckConfig{WCAGLevel: models.LevelAA, Concurrent: 3, TimeoutMS: 30000},
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2026, 10, 17, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "accessibility-report-20261017-090507.json", FileName(ts, "json"))
}

func TestFromConfig(t *testing.T) {
	reporters, err := FromConfig(models.OutputConfig{
		Formats:   []string{models.FormatConsole, models.FormatJSON, models.FormatHTML},
		Directory: t.TempDir(),
	}, &bytes.Buffer{})
	require.NoError(t, err)

	var formats []string
	for _, r := range reporters {
		formats = append(formats, r.Format())
	}
	assert.Equal(t, []string{"console", "json", "html"}, formats)

	_, err = FromConfig(models.OutputConfig{Formats: []string{"pdf"}}, &bytes.Buffer{})
	assert.ErrorContains(t, err, `unknown report format "pdf"`)
}

func TestJSONReporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	report := sampleReport()
	r := NewJSONReporter(dir)

	require.NoError(t, r.Generate(context.Background(), report))

	path := filepath.Join(dir, "accessibility-report-20261017-093000.json")
	assert.Equal(t, path, r.Path(report))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	summary := raw["summary"].(map[string]any)
	assert.Equal(t, "2026-10-17T09:30:00Z", summary["timestamp"])
	assert.EqualValues(t, 95, summary["overallScore"])

	var decoded models.HealthCheckReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Pages, 2)
	assert.Equal(t, report.Pages[1].Issues[0].ID, decoded.Pages[1].Issues[0].ID)
	assert.Equal(t, "1.1.1", decoded.Pages[1].Issues[0].WCAGRef)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{filepath.Base(path), lockFileName}, names, "only the report and the lock file remain")
}

func TestJSONReporterWaitsForLock(t *testing.T) {
	dir := t.TempDir()
	r := NewJSONReporter(dir)
	report := sampleReport()

	held := flock.New(filepath.Join(dir, lockFileName))
	require.NoError(t, held.Lock())

	done := make(chan error, 1)
	go func() { done <- r.Generate(context.Background(), report) }()

	select {
	case err := <-done:
		t.Fatalf("report written while another writer held the lock: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	assert.NoFileExists(t, r.Path(report))

	require.NoError(t, held.Unlock())
	require.NoError(t, <-done)
	assert.FileExists(t, r.Path(report))
	assert.FileExists(t, filepath.Join(dir, lockFileName), "lock file is kept for later writers")
}

func TestJSONReporterUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewJSONReporter(filepath.Join(blocker, "reports")).Generate(context.Background(), sampleReport())
	assert.Error(t, err)
}

func TestHTMLReporter(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport()
	r := NewHTMLReporter(dir)

	require.NoError(t, r.Generate(context.Background(), report))

	data, err := os.ReadFile(filepath.Join(dir, "accessibility-report-20261017-093000.html"))
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, `<html lang="en">`)
	assert.Contains(t, html, "https://example.com/gallery")
	assert.Contains(t, html, "Image is missing alt text")
	assert.Contains(t, html, "<code>alt</code>", "descriptions are rendered as markdown")
	assert.Contains(t, html, "#hero &gt; img:nth-of-type(1)")
	assert.Contains(t, html, `href="https://www.w3.org/WAI/WCAG21/Understanding/1.1.1.html"`)
	assert.Contains(t, html, "WCAG A: not compliant")
	assert.Contains(t, html, "WCAG AA: compliant")
	assert.Contains(t, html, "95/100")
	assert.Contains(t, html, "No accessibility issues found.")
}

func TestRenderMarkdownDropsRawHTML(t *testing.T) {
	out := string(renderMarkdown("<script>alert(1)</script> and **bold**"))
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "&lt;script&gt;", "raw HTML is dropped, not escaped")
	assert.Contains(t, out, "<!-- raw HTML omitted -->")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf, false).Generate(context.Background(), sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Page: https://example.com/gallery")
	assert.Contains(t, out, "Score: 90/100")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "alt-text")
	assert.Contains(t, out, "1.1.1")
	assert.Contains(t, out, "No accessibility issues found")
	assert.Contains(t, out, "Overall score: 95/100")
	assert.Contains(t, out, "Pages checked: 2")
	assert.NotContains(t, out, "\x1b[", "no colors when not writing to a terminal")
	assert.NotContains(t, out, "help")
}

func TestConsoleReporterVerbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf, true).Generate(context.Background(), sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "#hero > img:nth-of-type(1)")
	assert.Contains(t, out, "Add `alt")
	assert.Contains(t, out, "https://www.w3.org/WAI/WCAG21/Understanding/1.1.1.html")
}

func TestReportersDoNotMutate(t *testing.T) {
	report := sampleReport()
	before, err := json.Marshal(report)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, r := range []Reporter{NewConsoleReporter(&bytes.Buffer{}, true), NewJSONReporter(dir), NewHTMLReporter(dir)} {
		require.NoError(t, r.Generate(context.Background(), report))
	}

	after, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestTemplatePageBlock(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Template().ExecuteTemplate(&buf, "page", sampleReport().Pages[1]))
	assert.True(t, strings.Contains(buf.String(), "Image is missing alt text"))
}
