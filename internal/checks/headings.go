package checks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

// HeadingChecker validates the document outline.
type HeadingChecker struct{}

func (HeadingChecker) Type() models.CheckerType { return models.CheckerHeading }

type heading struct {
	sel   *goquery.Selection
	level int
}

func headingLevel(s *goquery.Selection) (int, bool) {
	switch name := goquery.NodeName(s); name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return int(name[1] - '0'), true
	}
	if s.AttrOr("role", "") != "heading" {
		return 0, false
	}
	level, err := strconv.Atoi(s.AttrOr("aria-level", "2"))
	if err != nil || level < 1 {
		return 2, true
	}
	return level, true
}

func (c HeadingChecker) Check(ctx context.Context, logger *slog.Logger, page browser.Page, cfg models.HealthCheckConfig) (models.CheckerResult, error) {
	logger.DebugContext(ctx, "Starting heading structure check")
	f := newFinding(c.Type())

	doc, err := loadDocument(ctx, page)
	if err != nil {
		return f.result(), err
	}
	idx := indexDocument(doc)

	var headings []heading
	doc.Find(`h1, h2, h3, h4, h5, h6, [role="heading"]`).Each(func(_ int, s *goquery.Selection) {
		if isHidden(s) {
			return
		}
		if level, ok := headingLevel(s); ok {
			headings = append(headings, heading{sel: s, level: level})
		}
	})

	maxJump := cfg.Thresholds.HeadingJump
	if maxJump < 1 {
		maxJump = 1
	}

	h1Count := 0
	for i, h := range headings {
		if h.level == 1 {
			h1Count++
			if h1Count > 1 {
				f.at(h.sel, models.SeverityWarning, models.LevelA,
					"Page has more than one level-one heading",
					"Several h1 elements make the main topic of the page ambiguous.",
					"Keep a single `h1` and demote the others.")
			}
		}
		if i > 0 {
			prev := headings[i-1].level
			if h.level-prev > maxJump {
				f.at(h.sel, models.SeverityError, models.LevelA,
					fmt.Sprintf("Heading level jumps from h%d to h%d", prev, h.level),
					fmt.Sprintf("Heading levels should not skip more than %d level(s) at a time.", maxJump),
					fmt.Sprintf("Use an `h%d` here or restructure the surrounding headings.", prev+1))
			}
		}
		if accessibleName(idx, h.sel) == "" {
			f.at(h.sel, models.SeverityError, models.LevelAA,
				"Heading is empty",
				"Empty headings are announced by screen readers but carry no information.",
				"Add descriptive text to the heading or remove it.")
		}
	}

	// An outline without a top level is only checked when there is an
	// outline at all.
	if h1Count == 0 && len(headings) > 0 {
		f.at(headings[0].sel, models.SeverityError, models.LevelA,
			"Page has no level-one heading",
			"A single h1 identifies the main content of the page for assistive technology.",
			"Add an `h1` that describes the page.")
	}

	logger.InfoContext(ctx, "Heading structure check finished",
		slog.Int("headings", len(headings)),
		slog.Int("h1_count", h1Count),
		slog.Int("issues_found", len(f.issues)),
	)
	return f.result(), nil
}
