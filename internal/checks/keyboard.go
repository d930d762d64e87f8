package checks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

var interactiveRoles = toSet("button", "link", "checkbox", "menuitem", "tab", "switch", "radio", "option", "treeitem")

// KeyboardChecker finds functionality that cannot be reached from the
// keyboard.
type KeyboardChecker struct{}

func (KeyboardChecker) Type() models.CheckerType { return models.CheckerKeyboard }

func (c KeyboardChecker) Check(ctx context.Context, logger *slog.Logger, page browser.Page, _ models.HealthCheckConfig) (models.CheckerResult, error) {
	logger.DebugContext(ctx, "Starting keyboard navigation check")
	f := newFinding(c.Type())

	doc, err := loadDocument(ctx, page)
	if err != nil {
		return f.result(), err
	}

	doc.Find("[onclick]").Each(func(_ int, s *goquery.Selection) {
		if isFocusable(s) || isHidden(s) {
			return
		}
		role := strings.ToLower(s.AttrOr("role", ""))
		f.at(s, models.SeverityError, models.LevelA,
			fmt.Sprintf("Clickable <%s> cannot be reached with the keyboard", goquery.NodeName(s)),
			"Elements with click handlers must be focusable and operable from the keyboard.",
			clickFix(role))
	})

	doc.Find("[tabindex]").Each(func(_ int, s *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(s.AttrOr("tabindex", "")))
		if err != nil || n <= 0 {
			return
		}
		f.at(s, models.SeverityWarning, models.LevelA,
			fmt.Sprintf("Positive tabindex %d overrides the natural tab order", n),
			"Positive tabindex values make the focus order differ from the reading order.",
			"Use `tabindex=\"0\"` and arrange elements in source order instead.")
	})

	seen := make(map[string]bool)
	doc.Find("[accesskey]").Each(func(_ int, s *goquery.Selection) {
		key := strings.ToLower(strings.TrimSpace(s.AttrOr("accesskey", "")))
		if key == "" {
			return
		}
		if seen[key] {
			f.at(s, models.SeverityInfo, models.LevelA,
				fmt.Sprintf("Access key %q is used more than once", key),
				"Duplicate access keys make only one of the targets reachable.",
				"Give each element a unique `accesskey` or remove it.")
		}
		seen[key] = true
	})

	logger.InfoContext(ctx, "Keyboard navigation check finished", slog.Int("issues_found", len(f.issues)))
	return f.result(), nil
}

func clickFix(role string) string {
	if interactiveRoles[role] {
		return "Add `tabindex=\"0\"` and handle Enter and Space key presses."
	}
	return "Use a native `button` or `a` element, or add `role`, `tabindex=\"0\"` and key handlers."
}
