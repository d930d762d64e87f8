package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mazznoer/csscolorparser"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

// TextSamplesExpression asks the injected helper for every visible text
// element with its computed colors.
const TextSamplesExpression = `window.__a11yHelper.textSamples()`

const (
	largeTextPx     = 24.0
	largeBoldTextPx = 18.66
	boldWeight      = 700
)

// TextSample is one visible text element as reported by the page helper.
type TextSample struct {
	Selector   string  `json:"selector"`
	XPath      string  `json:"xpath"`
	TagName    string  `json:"tagName"`
	Text       string  `json:"text"`
	HTML       string  `json:"html"`
	Color      string  `json:"color"`
	Background string  `json:"background"`
	FontSize   float64 `json:"fontSize"`
	FontWeight int     `json:"fontWeight"`
}

func (s TextSample) large() bool {
	return s.FontSize >= largeTextPx || (s.FontSize >= largeBoldTextPx && s.FontWeight >= boldWeight)
}

// ContrastChecker compares computed text and background colors against the
// configured ratio. Its issues carry the run's target level since the
// threshold itself is configurable.
type ContrastChecker struct{}

func (ContrastChecker) Type() models.CheckerType { return models.CheckerColorContrast }

func (c ContrastChecker) Check(ctx context.Context, logger *slog.Logger, page browser.Page, cfg models.HealthCheckConfig) (models.CheckerResult, error) {
	logger.DebugContext(ctx, "Starting color contrast check")
	f := newFinding(c.Type())

	var samples []TextSample
	if err := page.Evaluate(ctx, TextSamplesExpression, &samples); err != nil {
		if errors.Is(err, browser.ErrEvaluateUnsupported) {
			logger.DebugContext(ctx, "Skipping color contrast check: engine has no computed styles")
			return f.result(), nil
		}
		return f.result(), fmt.Errorf("failed to collect text samples: %w", err)
	}

	normal := cfg.Thresholds.ContrastRatio
	large := math.Min(largeTextThreshold(cfg.WCAGLevel), normal)

	skipped := 0
	for _, sample := range samples {
		fg, okFG := parseColor(sample.Color)
		bg, okBG := parseColor(sample.Background)
		if !okFG || !okBG {
			skipped++
			continue
		}
		ratio := contrastRatio(fg.over(bg), bg)
		required := normal
		if sample.large() {
			required = large
		}
		if ratio >= required {
			continue
		}

		el := models.Element{
			Selector:   sample.Selector,
			TagName:    sample.TagName,
			Attributes: map[string]string{},
			HTML:       truncate(sample.HTML, maxSnippetLength),
			Text:       truncate(sample.Text, maxTextLength),
		}
		f.issues = append(f.issues, models.NewIssue(c.Type(), models.SeverityError, cfg.WCAGLevel,
			fmt.Sprintf("Insufficient color contrast %.2f:1 (required %.1f:1)", ratio, required),
			fmt.Sprintf("Text color %s on background %s is hard to read for users with low vision.", sample.Color, sample.Background),
			models.WithElement(el),
			models.WithLocation(models.Location{XPath: sample.XPath}),
			models.WithSuggestedFix(fmt.Sprintf("Darken the text or lighten the background until the ratio reaches at least %.1f:1.", required)),
		))
	}

	logger.InfoContext(ctx, "Color contrast check finished",
		slog.Int("samples", len(samples)),
		slog.Int("unparsed_colors", skipped),
		slog.Int("issues_found", len(f.issues)),
	)
	return f.result(), nil
}

func largeTextThreshold(level models.WCAGLevel) float64 {
	if level == models.LevelAAA {
		return 4.5
	}
	return 3.0
}

// rgba holds channels in the 0-1 range.
type rgba struct {
	r, g, b, a float64
}

// parseColor reads any CSS color, including the rgb()/rgba() strings
// getComputedStyle produces.
func parseColor(s string) (rgba, bool) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return rgba{}, false
	}
	return rgba{r: c.R, g: c.G, b: c.B, a: c.A}, true
}

// over composites c onto an opaque background.
func (c rgba) over(bg rgba) rgba {
	if c.a >= 1 {
		return c
	}
	return rgba{
		r: c.r*c.a + bg.r*(1-c.a),
		g: c.g*c.a + bg.g*(1-c.a),
		b: c.b*c.a + bg.b*(1-c.a),
		a: 1,
	}
}

func channelLuminance(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func (c rgba) luminance() float64 {
	return 0.2126*channelLuminance(c.r) + 0.7152*channelLuminance(c.g) + 0.0722*channelLuminance(c.b)
}

// contrastRatio is the WCAG ratio (L1 + 0.05) / (L2 + 0.05), between 1 and 21.
func contrastRatio(a, b rgba) float64 {
	la, lb := a.luminance(), b.luminance()
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}
