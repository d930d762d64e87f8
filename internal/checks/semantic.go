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

// SemanticChecker covers document-level structure: the language and title
// the page declares, its main landmark and unique ids. A document that omits
// lang, title or main entirely is not flagged; only a declared but blank or
// conflicting one is.
type SemanticChecker struct{}

func (SemanticChecker) Type() models.CheckerType { return models.CheckerSemanticHTML }

func (c SemanticChecker) Check(ctx context.Context, logger *slog.Logger, page browser.Page, _ models.HealthCheckConfig) (models.CheckerResult, error) {
	logger.DebugContext(ctx, "Starting semantic HTML check")
	f := newFinding(c.Type())

	doc, err := loadDocument(ctx, page)
	if err != nil {
		return f.result(), err
	}

	root := doc.Find("html").First()
	if lang, ok := root.Attr("lang"); ok && strings.TrimSpace(lang) == "" {
		f.at(root, models.SeverityError, models.LevelA,
			"Document language is empty",
			"Screen readers pick pronunciation rules from the lang attribute.",
			"Set the `lang` attribute of the `html` element to a language tag, for example `lang=\"en\"`.")
	}

	if title := doc.Find("head title").First(); title.Length() > 0 && normalizeSpace(title.Text()) == "" {
		f.at(title, models.SeverityError, models.LevelA,
			"Document title is empty",
			"The page title is the first thing announced and identifies the page in tabs and history.",
			"Give the `title` element descriptive text.")
	}

	mains := doc.Find(`main, [role="main"]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return !isHidden(s)
	})
	if mains.Length() > 1 {
		f.at(mains.Eq(1), models.SeverityWarning, models.LevelA,
			"Page has more than one main landmark",
			"Several visible main landmarks leave users unsure where the primary content starts.",
			"Keep one visible `main` element and use other landmarks for the rest.")
	}

	ids := make(map[string]int)
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id == "" {
			return
		}
		ids[id]++
		if ids[id] == 2 {
			f.at(s, models.SeverityError, models.LevelA,
				fmt.Sprintf("Duplicate id %q", id),
				"Labels and ARIA references resolve to the first element with an id, so duplicates break them.",
				"Make every `id` in the document unique.")
		}
	})

	logger.InfoContext(ctx, "Semantic HTML check finished",
		slog.Int("unique_ids", len(ids)),
		slog.Int("issues_found", len(f.issues)),
	)
	return f.result(), nil
}
