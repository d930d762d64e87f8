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

var validRoles = toSet(
	"alert", "alertdialog", "application", "article", "banner", "blockquote", "button", "caption", "cell",
	"checkbox", "code", "columnheader", "combobox", "complementary", "contentinfo", "definition", "deletion",
	"dialog", "directory", "document", "emphasis", "feed", "figure", "form", "generic", "grid", "gridcell",
	"group", "heading", "img", "insertion", "link", "list", "listbox", "listitem", "log", "main", "marquee",
	"math", "menu", "menubar", "menuitem", "menuitemcheckbox", "menuitemradio", "meter", "navigation", "none",
	"note", "option", "paragraph", "presentation", "progressbar", "radio", "radiogroup", "region", "row",
	"rowgroup", "rowheader", "scrollbar", "search", "searchbox", "separator", "slider", "spinbutton", "status",
	"strong", "subscript", "superscript", "switch", "tab", "table", "tablist", "tabpanel", "term", "textbox",
	"time", "timer", "toolbar", "tooltip", "tree", "treegrid", "treeitem",
)

var validARIAAttributes = toSet(
	"aria-activedescendant", "aria-atomic", "aria-autocomplete", "aria-braillelabel", "aria-brailleroledescription",
	"aria-busy", "aria-checked", "aria-colcount", "aria-colindex", "aria-colindextext", "aria-colspan",
	"aria-controls", "aria-current", "aria-describedby", "aria-description", "aria-details", "aria-disabled",
	"aria-dropeffect", "aria-errormessage", "aria-expanded", "aria-flowto", "aria-grabbed", "aria-haspopup",
	"aria-hidden", "aria-invalid", "aria-keyshortcuts", "aria-label", "aria-labelledby", "aria-level",
	"aria-live", "aria-modal", "aria-multiline", "aria-multiselectable", "aria-orientation", "aria-owns",
	"aria-placeholder", "aria-posinset", "aria-pressed", "aria-readonly", "aria-relevant", "aria-required",
	"aria-roledescription", "aria-rowcount", "aria-rowindex", "aria-rowindextext", "aria-rowspan",
	"aria-selected", "aria-setsize", "aria-sort", "aria-valuemax", "aria-valuemin", "aria-valuenow",
	"aria-valuetext",
)

var idRefAttributes = []string{"aria-labelledby", "aria-describedby", "aria-controls", "aria-owns", "aria-errormessage"}

const namedControls = `button, a[href], [role="button"], [role="link"], [role="checkbox"], [role="menuitem"], [role="tab"], [role="switch"], [role="radio"]`

func toSet(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// ARIAChecker validates roles, ARIA attributes and accessible names.
type ARIAChecker struct{}

func (ARIAChecker) Type() models.CheckerType { return models.CheckerARIA }

func (c ARIAChecker) Check(ctx context.Context, logger *slog.Logger, page browser.Page, _ models.HealthCheckConfig) (models.CheckerResult, error) {
	logger.DebugContext(ctx, "Starting ARIA check")
	f := newFinding(c.Type())

	doc, err := loadDocument(ctx, page)
	if err != nil {
		return f.result(), err
	}
	idx := indexDocument(doc)

	doc.Find("[role]").Each(func(_ int, s *goquery.Selection) {
		role := strings.TrimSpace(s.AttrOr("role", ""))
		for _, token := range strings.Fields(role) {
			if validRoles[strings.ToLower(token)] {
				return
			}
		}
		f.at(s, models.SeverityError, models.LevelA,
			fmt.Sprintf("Invalid ARIA role %q", role),
			"Assistive technology ignores roles that are not defined by WAI-ARIA.",
			"Use a valid WAI-ARIA role or remove the `role` attribute.")
	})

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, a := range s.Nodes[0].Attr {
			if strings.HasPrefix(a.Key, "aria-") && !validARIAAttributes[a.Key] {
				f.at(s, models.SeverityWarning, models.LevelA,
					fmt.Sprintf("Unknown ARIA attribute %q", a.Key),
					"Misspelled or invented ARIA attributes have no effect.",
					"Check the attribute name against the WAI-ARIA specification.")
			}
		}
		for _, key := range idRefAttributes {
			ids, ok := s.Attr(key)
			if !ok {
				continue
			}
			for _, id := range strings.Fields(ids) {
				if !idx.has(id) {
					f.at(s, models.SeverityError, models.LevelA,
						fmt.Sprintf("%s references missing id %q", key, id),
						"ARIA relationships pointing at elements that do not exist are silently dropped.",
						fmt.Sprintf("Add an element with `id=\"%s\"` or fix the reference.", id))
				}
			}
		}
	})

	doc.Find(namedControls).Each(func(_ int, s *goquery.Selection) {
		if isHidden(s) {
			return
		}
		if accessibleName(idx, s) == "" {
			f.at(s, models.SeverityError, models.LevelA,
				fmt.Sprintf("Interactive <%s> element has no accessible name", goquery.NodeName(s)),
				"Screen readers announce controls without a name as just their role.",
				"Add visible text, an `aria-label` or an `aria-labelledby` reference.")
		}
	})

	doc.Find(`[aria-hidden="true"]`).Each(func(_ int, s *goquery.Selection) {
		focusable := isFocusable(s)
		if !focusable {
			s.Find("*").EachWithBreak(func(_ int, child *goquery.Selection) bool {
				focusable = isFocusable(child)
				return !focusable
			})
		}
		if focusable {
			f.at(s, models.SeverityError, models.LevelA,
				"Focusable content is hidden with aria-hidden",
				"Keyboard users can reach elements that screen readers are told do not exist.",
				"Remove `aria-hidden` or take the content out of the tab order with `tabindex=\"-1\"`.")
		}
	})

	logger.InfoContext(ctx, "ARIA check finished", slog.Int("issues_found", len(f.issues)))
	return f.result(), nil
}
