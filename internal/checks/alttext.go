package checks

import (
	"context"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

var imageFileName = regexp.MustCompile(`(?i)^[\w\-. ]+\.(png|jpe?g|gif|svg|webp|bmp|ico|avif)$`)

var placeholderAlt = map[string]bool{
	"image":   true,
	"img":     true,
	"picture": true,
	"photo":   true,
	"graphic": true,
	"icon":    true,
}

// AltTextChecker finds images without a text alternative.
type AltTextChecker struct{}

func (AltTextChecker) Type() models.CheckerType { return models.CheckerAltText }

func (c AltTextChecker) Check(ctx context.Context, logger *slog.Logger, page browser.Page, _ models.HealthCheckConfig) (models.CheckerResult, error) {
	logger.DebugContext(ctx, "Starting alt text check")
	f := newFinding(c.Type())

	doc, err := loadDocument(ctx, page)
	if err != nil {
		return f.result(), err
	}
	idx := indexDocument(doc)

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if isHidden(img) || img.AttrOr("role", "") == "presentation" || img.AttrOr("role", "") == "none" {
			return
		}
		alt, ok := img.Attr("alt")
		if !ok {
			f.at(img, models.SeverityError, models.LevelA,
				"Image is missing an alt attribute",
				"Screen readers cannot describe an image without a text alternative.",
				"Add an `alt` attribute describing the image, or `alt=\"\"` if it is decorative.")
			return
		}
		if suspiciousAlt(alt, img.AttrOr("src", "")) {
			f.at(img, models.SeverityWarning, models.LevelA,
				"Image alt text does not describe the image",
				"The alt text looks like a file name or a generic placeholder.",
				"Replace the `alt` value with a short description of what the image shows.")
		}
	})

	doc.Find(`input[type="image"]`).Each(func(_ int, input *goquery.Selection) {
		if strings.TrimSpace(input.AttrOr("alt", "")) == "" && accessibleName(idx, input) == "" {
			f.at(input, models.SeverityError, models.LevelA,
				"Image button has no text alternative",
				"An `input type=\"image\"` needs alt text that names its action.",
				"Add an `alt` attribute that describes the button's action.")
		}
	})

	doc.Find("area[href]").Each(func(_ int, area *goquery.Selection) {
		if _, ok := area.Attr("alt"); !ok && area.AttrOr("aria-label", "") == "" {
			f.at(area, models.SeverityError, models.LevelA,
				"Image map area is missing an alt attribute",
				"Clickable image map regions need a text alternative.",
				"Add an `alt` attribute to the `area` element.")
		}
	})

	logger.InfoContext(ctx, "Alt text check finished", slog.Int("issues_found", len(f.issues)))
	return f.result(), nil
}

func suspiciousAlt(alt, src string) bool {
	alt = strings.TrimSpace(alt)
	if alt == "" {
		return false
	}
	if placeholderAlt[strings.ToLower(alt)] {
		return true
	}
	if imageFileName.MatchString(alt) {
		return true
	}
	return src != "" && strings.EqualFold(alt, path.Base(src))
}
