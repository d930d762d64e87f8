package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

const (
	maxSnippetLength = 300
	maxTextLength    = 100
)

// loadDocument parses the page's rendered DOM.
func loadDocument(ctx context.Context, page browser.Page) (*goquery.Document, error) {
	markup, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page markup: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// finding accumulates the issues of one checker run.
type finding struct {
	checker models.CheckerType
	start   time.Time
	issues  []models.AccessibilityIssue
}

func newFinding(t models.CheckerType) *finding {
	return &finding{checker: t, start: time.Now(), issues: []models.AccessibilityIssue{}}
}

// at records an issue located at the first node of s.
func (f *finding) at(s *goquery.Selection, severity models.Severity, level models.WCAGLevel, message, description, fix string) {
	opts := []models.IssueOption{models.WithSuggestedFix(fix)}
	if len(s.Nodes) > 0 {
		el, loc := describe(s)
		opts = append(opts, models.WithElement(el), models.WithLocation(loc))
	}
	f.issues = append(f.issues, models.NewIssue(f.checker, severity, level, message, description, opts...))
}

// page records an issue about the document as a whole.
func (f *finding) page(severity models.Severity, level models.WCAGLevel, message, description, fix string) {
	f.issues = append(f.issues, models.NewIssue(f.checker, severity, level, message, description, models.WithSuggestedFix(fix)))
}

func (f *finding) result() models.CheckerResult {
	return models.CheckerResult{Type: f.checker, Issues: f.issues, Duration: time.Since(f.start)}
}

// describe snapshots the first node of s.
func describe(s *goquery.Selection) (models.Element, models.Location) {
	node := s.Nodes[0]
	attrs := make(map[string]string, len(node.Attr))
	for _, a := range node.Attr {
		attrs[a.Key] = a.Val
	}
	snippet, _ := goquery.OuterHtml(s.First())
	el := models.Element{
		Selector:   selectorOf(node),
		TagName:    node.Data,
		Attributes: attrs,
		HTML:       truncate(snippet, maxSnippetLength),
		Text:       truncate(normalizeSpace(s.First().Text()), maxTextLength),
	}
	return el, models.Location{XPath: xpathOf(node)}
}

// sameTagIndex is the 1-based position of n among its element siblings with
// the same tag.
func sameTagIndex(n *html.Node) int {
	index := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			index++
		}
	}
	return index
}

func xpathOf(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		parts = append([]string{fmt.Sprintf("%s[%d]", n.Data, sameTagIndex(n))}, parts...)
	}
	return "/" + strings.Join(parts, "/")
}

func selectorOf(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if id := attr(n, "id"); id != "" {
			parts = append([]string{"#" + id}, parts...)
			break
		}
		if n.Data == "html" || n.Data == "body" {
			parts = append([]string{n.Data}, parts...)
			continue
		}
		parts = append([]string{fmt.Sprintf("%s:nth-of-type(%d)", n.Data, sameTagIndex(n))}, parts...)
	}
	return strings.Join(parts, " > ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// domIndex resolves id references without building selectors from
// attribute values. It is built once per document.
type domIndex struct {
	ids    map[string]*goquery.Selection
	labels map[string][]*goquery.Selection
}

func indexDocument(doc *goquery.Document) *domIndex {
	idx := &domIndex{
		ids:    make(map[string]*goquery.Selection),
		labels: make(map[string][]*goquery.Selection),
	}
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		// The first element wins, as it does for getElementById.
		if id := s.AttrOr("id", ""); id != "" && idx.ids[id] == nil {
			idx.ids[id] = s
		}
	})
	doc.Find("label[for]").Each(func(_ int, s *goquery.Selection) {
		target := s.AttrOr("for", "")
		idx.labels[target] = append(idx.labels[target], s)
	})
	return idx
}

func (idx *domIndex) has(id string) bool {
	return idx.ids[id] != nil
}

// text joins the text of the elements referenced by a space separated id
// list, as aria-labelledby does.
func (idx *domIndex) text(ids string) string {
	var parts []string
	for _, id := range strings.Fields(ids) {
		if ref := idx.ids[id]; ref != nil {
			parts = append(parts, normalizeSpace(ref.Text()))
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// accessibleName approximates the accessible name of an element from its
// ARIA attributes, text, images and title.
func accessibleName(idx *domIndex, s *goquery.Selection) string {
	if label := strings.TrimSpace(s.AttrOr("aria-label", "")); label != "" {
		return label
	}
	if ids := s.AttrOr("aria-labelledby", ""); ids != "" {
		if name := idx.text(ids); name != "" {
			return name
		}
	}
	if text := normalizeSpace(s.Text()); text != "" {
		return text
	}
	var alt string
	s.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt = strings.TrimSpace(img.AttrOr("alt", ""))
		return alt == ""
	})
	if alt != "" {
		return alt
	}
	if goquery.NodeName(s) == "input" {
		if v := strings.TrimSpace(s.AttrOr("value", "")); v != "" {
			return v
		}
	}
	return strings.TrimSpace(s.AttrOr("title", ""))
}

// isHidden reports whether s or an ancestor is removed from rendering or the
// accessibility tree by markup alone.
func isHidden(s *goquery.Selection) bool {
	for n := s.Nodes[0]; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if _, hidden := lookupAttr(n, "hidden"); hidden {
			return true
		}
		if attr(n, "aria-hidden") == "true" {
			return true
		}
		style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
	}
	return false
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// isFocusable reports whether the element takes keyboard focus.
func isFocusable(s *goquery.Selection) bool {
	if _, disabled := s.Attr("disabled"); disabled {
		return false
	}
	if tabindex, ok := s.Attr("tabindex"); ok {
		return strings.TrimSpace(tabindex) != "-1"
	}
	switch goquery.NodeName(s) {
	case "button", "select", "textarea", "summary", "iframe":
		return true
	case "input":
		return s.AttrOr("type", "text") != "hidden"
	case "a", "area":
		_, ok := s.Attr("href")
		return ok
	}
	_, editable := s.Attr("contenteditable")
	return editable
}
