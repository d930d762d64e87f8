package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"a11y-checker/internal/models"
)

// colorScheme maps severities and score bands to colors.
type colorScheme struct {
	err   *color.Color
	warn  *color.Color
	info  *color.Color
	good  *color.Color
	label *color.Color
	dim   *color.Color
}

func newColorScheme(enabled bool) *colorScheme {
	s := &colorScheme{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow),
		info:  color.New(color.FgBlue),
		good:  color.New(color.FgGreen),
		label: color.New(color.FgCyan),
		dim:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{s.err, s.warn, s.info, s.good, s.label, s.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s *colorScheme) severity(sev models.Severity) *color.Color {
	switch sev {
	case models.SeverityError:
		return s.err
	case models.SeverityWarning:
		return s.warn
	default:
		return s.info
	}
}

func (s *colorScheme) score(score int) *color.Color {
	switch {
	case score >= 90:
		return s.good
	case score >= 50:
		return s.warn
	default:
		return s.err
	}
}

// ConsoleReporter prints a per-page issue table and a run summary.
type ConsoleReporter struct {
	w       io.Writer
	verbose bool
	colors  *colorScheme
}

// NewConsoleReporter writes to w, colored only when w is a terminal.
func NewConsoleReporter(w io.Writer, verbose bool) *ConsoleReporter {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &ConsoleReporter{w: w, verbose: verbose, colors: newColorScheme(tty && !color.NoColor)}
}

func (r *ConsoleReporter) Format() string { return models.FormatConsole }

func (r *ConsoleReporter) Generate(ctx context.Context, report *models.HealthCheckReport) error {
	var b strings.Builder
	c := r.colors

	for _, page := range report.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(&b, "\n%s %s\n", c.label.Sprint("Page:"), page.URL)
		fmt.Fprintf(&b, "%s %s  %s %d  %s %s\n",
			c.label.Sprint("Score:"), c.score(page.Score).Sprintf("%d/100", page.Score),
			c.label.Sprint("Issues:"), page.TotalIssues,
			c.label.Sprint("Compliance:"), compliance(page.Compliance, c),
		)

		if len(page.Issues) == 0 {
			fmt.Fprintf(&b, "  %s\n", c.good.Sprint("No accessibility issues found"))
			continue
		}

		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  SEVERITY\tCHECK\tWCAG\tMESSAGE")
		for _, issue := range page.Issues {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				c.severity(issue.Severity).Sprint(strings.ToUpper(string(issue.Severity))),
				issue.Type, issue.WCAGRef, issue.Message)
			if r.verbose {
				r.writeDetail(tw, issue)
			}
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("failed to format issue table: %w", err)
		}
	}

	s := report.Summary
	fmt.Fprintf(&b, "\n%s\n", c.label.Sprint("Summary"))
	fmt.Fprintf(&b, "  Pages checked: %d\n", s.TotalPages)
	fmt.Fprintf(&b, "  Total issues:  %d\n", s.TotalIssues)
	fmt.Fprintf(&b, "  Overall score: %s\n", c.score(s.OverallScore).Sprintf("%d/100", s.OverallScore))
	fmt.Fprintf(&b, "  WCAG level:    %s\n", report.Config.WCAGLevel)
	fmt.Fprintf(&b, "  Duration:      %dms\n", s.DurationMS)

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return fmt.Errorf("failed to write console report: %w", err)
	}
	return nil
}

func (r *ConsoleReporter) writeDetail(w io.Writer, issue models.AccessibilityIssue) {
	c := r.colors
	if issue.Description != "" {
		fmt.Fprintf(w, "\t%s\t\t%s\n", c.dim.Sprint("why"), issue.Description)
	}
	if issue.Element != nil && issue.Element.Selector != "" {
		fmt.Fprintf(w, "\t%s\t\t%s\n", c.dim.Sprint("where"), issue.Element.Selector)
	}
	if issue.SuggestedFix != "" {
		fmt.Fprintf(w, "\t%s\t\t%s\n", c.dim.Sprint("fix"), issue.SuggestedFix)
	}
	if issue.HelpURL != "" {
		fmt.Fprintf(w, "\t%s\t\t%s\n", c.dim.Sprint("help"), issue.HelpURL)
	}
}

func compliance(levels map[models.WCAGLevel]bool, c *colorScheme) string {
	parts := make([]string, 0, len(models.WCAGLevels))
	for _, l := range models.WCAGLevels {
		if levels[l] {
			parts = append(parts, c.good.Sprintf("%s ✓", l))
		} else {
			parts = append(parts, c.err.Sprintf("%s ✗", l))
		}
	}
	return strings.Join(parts, " ")
}
