package checks

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

var outlineRemoved = regexp.MustCompile(`(?i)outline\s*:\s*(none|0(px)?)\s*(;|$)`)

// FocusChecker looks for markup that hides or steals keyboard focus.
type FocusChecker struct{}

func (FocusChecker) Type() models.CheckerType { return models.CheckerFocus }

func (c FocusChecker) Check(ctx context.Context, logger *slog.Logger, page browser.Page, _ models.HealthCheckConfig) (models.CheckerResult, error) {
	logger.DebugContext(ctx, "Starting focus management check")
	f := newFinding(c.Type())

	doc, err := loadDocument(ctx, page)
	if err != nil {
		return f.result(), err
	}

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		if !outlineRemoved.MatchString(s.AttrOr("style", "")) || !isNativelyFocusable(s) {
			return
		}
		f.at(s, models.SeverityWarning, models.LevelAA,
			"Focus outline is removed",
			"Without a visible focus indicator keyboard users lose track of where they are.",
			"Keep the outline or provide an alternative `:focus-visible` style.")
	})

	doc.Find(`[tabindex="-1"]`).Each(func(_ int, s *goquery.Selection) {
		if !isNativelyFocusable(s) || isHidden(s) {
			return
		}
		f.at(s, models.SeverityWarning, models.LevelA,
			"Interactive element is removed from the tab order",
			"`tabindex=\"-1\"` on a link or control makes it unreachable with the Tab key.",
			"Remove `tabindex=\"-1\"` unless the element is managed by a composite widget.")
	})

	doc.Find("[autofocus]").Each(func(_ int, s *goquery.Selection) {
		f.at(s, models.SeverityInfo, models.LevelA,
			"Element grabs focus on page load",
			"Autofocus moves screen reader users past the content before it.",
			"Consider removing `autofocus` and letting users reach the control themselves.")
	})

	logger.InfoContext(ctx, "Focus management check finished", slog.Int("issues_found", len(f.issues)))
	return f.result(), nil
}

// isNativelyFocusable ignores tabindex and reports whether the element is an
// interactive control by default.
func isNativelyFocusable(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "button", "select", "textarea", "summary":
		return true
	case "input":
		return !strings.EqualFold(s.AttrOr("type", "text"), "hidden")
	case "a", "area":
		_, ok := s.Attr("href")
		return ok
	}
	return false
}
