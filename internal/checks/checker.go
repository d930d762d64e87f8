// Package checks holds the rule scanners run against every audited page.
//
// Each checker is stateless and read-only with respect to the page: it
// snapshots the rendered DOM (or asks the injected helper for computed
// styles) and returns the issues it found. Absent elements are never an
// error; a checker returns an error only when it could not inspect the page
// at all.
package checks

import (
	"context"
	"log/slog"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

// Checker is implemented by every rule scanner.
type Checker interface {
	Type() models.CheckerType
	Check(ctx context.Context, logger *slog.Logger, page browser.Page, cfg models.HealthCheckConfig) (models.CheckerResult, error)
}

// Registry returns one instance of every checker, in report order.
func Registry() []Checker {
	return []Checker{
		AltTextChecker{},
		ContrastChecker{},
		HeadingChecker{},
		ARIAChecker{},
		FormLabelChecker{},
		KeyboardChecker{},
		FocusChecker{},
		SemanticChecker{},
	}
}

// Enabled filters all down to the checkers cfg enables, keeping order.
func Enabled(all []Checker, cfg models.HealthCheckConfig) []Checker {
	out := make([]Checker, 0, len(all))
	for _, c := range all {
		if cfg.IsEnabled(c.Type()) {
			out = append(out, c)
		}
	}
	return out
}
