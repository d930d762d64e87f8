package checks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

var unlabelledInputTypes = toSet("hidden", "submit", "button", "image", "reset")

// FormLabelChecker requires every form control to have a programmatic label.
type FormLabelChecker struct{}

func (FormLabelChecker) Type() models.CheckerType { return models.CheckerFormLabels }

func (c FormLabelChecker) Check(ctx context.Context, logger *slog.Logger, page browser.Page, _ models.HealthCheckConfig) (models.CheckerResult, error) {
	logger.DebugContext(ctx, "Starting form label check")
	f := newFinding(c.Type())

	doc, err := loadDocument(ctx, page)
	if err != nil {
		return f.result(), err
	}
	idx := indexDocument(doc)

	controls := 0
	doc.Find("input, select, textarea").Each(func(i int, s *goquery.Selection) {
		if goquery.NodeName(s) == "input" && unlabelledInputTypes[strings.ToLower(s.AttrOr("type", "text"))] {
			return
		}
		if isHidden(s) {
			return
		}
		controls++
		controlLogger := logger.With(slog.Int("control_index", i))

		if hasLabel(idx, s) {
			controlLogger.DebugContext(ctx, "Form control is labelled")
			return
		}
		if strings.TrimSpace(s.AttrOr("placeholder", "")) != "" {
			f.at(s, models.SeverityError, models.LevelA,
				"Form control is labelled only by its placeholder",
				"Placeholder text disappears on input and is not a reliable label.",
				"Add a `label` element associated with the control.")
			return
		}
		f.at(s, models.SeverityError, models.LevelA,
			fmt.Sprintf("Form <%s> has no label", goquery.NodeName(s)),
			"Users of assistive technology cannot tell what this control is for.",
			"Add a `label for=\"...\"`, wrap the control in a `label`, or use `aria-label`.")
	})

	logger.InfoContext(ctx, "Form label check finished",
		slog.Int("controls", controls),
		slog.Int("issues_found", len(f.issues)),
	)
	return f.result(), nil
}

func hasLabel(idx *domIndex, s *goquery.Selection) bool {
	if strings.TrimSpace(s.AttrOr("aria-label", "")) != "" {
		return true
	}
	if ids := s.AttrOr("aria-labelledby", ""); ids != "" && idx.text(ids) != "" {
		return true
	}
	if id := s.AttrOr("id", ""); id != "" {
		for _, label := range idx.labels[id] {
			if normalizeSpace(label.Text()) != "" {
				return true
			}
		}
	}
	if wrapping := s.Closest("label"); wrapping.Length() > 0 && normalizeSpace(wrapping.Text()) != "" {
		return true
	}
	return strings.TrimSpace(s.AttrOr("title", "")) != ""
}
