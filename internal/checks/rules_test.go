package checks

import (
	"testing"

	"a11y-checker/internal/models"
)

type ruleCase struct {
	name       string
	markup     string
	severities []models.Severity
}

func runRuleCases(t *testing.T, c Checker, cfg models.HealthCheckConfig, cases []ruleCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := runChecker(t, c, tc.markup, cfg)
			if len(result.Issues) != len(tc.severities) {
				t.Fatalf("Expected %d issue(s), but got %d: %s", len(tc.severities), len(result.Issues), messages(result.Issues))
			}
			for i, want := range tc.severities {
				if result.Issues[i].Severity != want {
					t.Errorf("Issue %d: expected severity %s, but got %s (%s)", i, want, result.Issues[i].Severity, result.Issues[i].Message)
				}
			}
		})
	}
}

// oddID holds a soft hyphen, which Go quoting escapes but CSS does not.
const oddID = "price\u00adlabel"

var (
	errSev  = models.SeverityError
	warnSev = models.SeverityWarning
	infoSev = models.SeverityInfo
)

func TestAltTextChecker(t *testing.T) {
	runRuleCases(t, AltTextChecker{}, defaultConfig(), []ruleCase{
		{"missing alt", page(`<img src="cat.png">`), []models.Severity{errSev}},
		{"decorative alt", page(`<img src="line.png" alt="">`), nil},
		{"descriptive alt", page(`<img src="cat.png" alt="A sleeping cat">`), nil},
		{"file name alt", page(`<img src="/img/cat.png" alt="cat.png">`), []models.Severity{warnSev}},
		{"placeholder alt", page(`<img src="a.png" alt="image">`), []models.Severity{warnSev}},
		{"presentation role", page(`<img src="a.png" role="presentation">`), nil},
		{"hidden image", page(`<div hidden><img src="a.png"></div>`), nil},
		{"image button", page(`<input type="image" src="go.png">`), []models.Severity{errSev}},
		{"image map area", page(`<map name="m"><area href="/a"></map>`), []models.Severity{errSev}},
	})
}

func TestAltTextIssueDetails(t *testing.T) {
	result := runChecker(t, AltTextChecker{}, page(`<img src="cat.png">`), defaultConfig())
	if len(result.Issues) != 1 {
		t.Fatalf("Expected 1 issue, but got %d", len(result.Issues))
	}
	issue := result.Issues[0]
	if issue.WCAGRef != "1.1.1" || issue.WCAGLevel != models.LevelA {
		t.Errorf("Expected 1.1.1 at level A, but got %s at %s", issue.WCAGRef, issue.WCAGLevel)
	}
	if issue.Element == nil || issue.Element.TagName != "img" {
		t.Fatalf("Expected an img element descriptor, got %+v", issue.Element)
	}
	if issue.Location == nil || issue.Location.XPath != "/html[1]/body[1]/main[1]/img[1]" {
		t.Errorf("Unexpected location: %+v", issue.Location)
	}
	if models.CalculateScore(result.Issues) != 90 {
		t.Errorf("Expected score 90, but got %d", models.CalculateScore(result.Issues))
	}
}

func TestHeadingChecker(t *testing.T) {
	cfg := defaultConfig()
	runRuleCases(t, HeadingChecker{}, cfg, []ruleCase{
		{"proper outline", page(`<h2>A</h2><h3>B</h3><h2>C</h2>`), nil},
		{"no h1", `<html lang="en"><body><h2>Only</h2></body></html>`, []models.Severity{errSev}},
		{"no headings at all", `<html><body><p>Text</p></body></html>`, nil},
		{"multiple h1", page(`<h1>Again</h1>`), []models.Severity{warnSev}},
		{"skipped level", page(`<h3>Deep</h3>`), []models.Severity{errSev}},
		{"empty heading", page(`<h2>  </h2>`), []models.Severity{errSev}},
		{"aria heading jump", page(`<div role="heading" aria-level="4">X</div>`), []models.Severity{errSev}},
		{"hidden heading ignored", page(`<h4 style="display: none">X</h4>`), nil},
	})

	cfg.Thresholds.HeadingJump = 2
	runRuleCases(t, HeadingChecker{}, cfg, []ruleCase{
		{"jump within threshold", page(`<h3>Deep</h3>`), nil},
		{"jump beyond threshold", page(`<h4>Deeper</h4>`), []models.Severity{errSev}},
	})
}

func TestARIAChecker(t *testing.T) {
	runRuleCases(t, ARIAChecker{}, defaultConfig(), []ruleCase{
		{"valid role", page(`<nav role="navigation"><a href="/">Home</a></nav>`), nil},
		{"invalid role", page(`<div role="buton">x</div>`), []models.Severity{errSev}},
		{"fallback role list", page(`<div role="foo region">x</div>`), nil},
		{"unknown attribute", page(`<div aria-lable="x">x</div>`), []models.Severity{warnSev}},
		{"dangling labelledby", page(`<div role="region" aria-labelledby="nope">x</div>`), []models.Severity{errSev}},
		{"resolved labelledby", page(`<span id="t">Title</span><div role="region" aria-labelledby="t">x</div>`), nil},
		{"labelledby odd id", page(`<span id="` + oddID + `">Price</span><div role="region" aria-labelledby="` + oddID + `">x</div>`), nil},
		{"labelledby quoted id", page(`<span id='say"hi'>Hi</span><div role="region" aria-describedby='say"hi'>x</div>`), nil},
		{"name from odd id", page(`<span id="` + oddID + `">Buy</span><button aria-labelledby="` + oddID + `"></button>`), nil},
		{"unnamed button", page(`<button></button>`), []models.Severity{errSev}},
		{"icon link with alt", page(`<a href="/"><img src="h.png" alt="Home"></a>`), nil},
		{"aria-label button", page(`<button aria-label="Close"></button>`), nil},
		{"aria-hidden focusable", page(`<div aria-hidden="true"><a href="/x">x</a></div>`), []models.Severity{errSev}},
		{"aria-hidden decorative", page(`<span aria-hidden="true">*</span>`), nil},
	})
}

func TestFormLabelChecker(t *testing.T) {
	runRuleCases(t, FormLabelChecker{}, defaultConfig(), []ruleCase{
		{"label for", page(`<label for="n">Name</label><input id="n">`), nil},
		{"label for odd id", page(`<label for="` + oddID + `">Price</label><input id="` + oddID + `">`), nil},
		{"wrapping label", page(`<label>Name <input></label>`), nil},
		{"aria-label", page(`<input aria-label="Search">`), nil},
		{"aria-labelledby", page(`<span id="l">Qty</span><input aria-labelledby="l">`), nil},
		{"title", page(`<select title="Country"><option>A</option></select>`), nil},
		{"no label", page(`<input type="text">`), []models.Severity{errSev}},
		{"empty label", page(`<label for="n"></label><input id="n">`), []models.Severity{errSev}},
		{"placeholder only", page(`<textarea placeholder="Comments"></textarea>`), []models.Severity{errSev}},
		{"hidden and buttons skipped", page(`<input type="hidden"><input type="submit" value="Go">`), nil},
	})
}

func TestKeyboardChecker(t *testing.T) {
	runRuleCases(t, KeyboardChecker{}, defaultConfig(), []ruleCase{
		{"clickable div", page(`<div onclick="go()">Go</div>`), []models.Severity{errSev}},
		{"focusable clickable div", page(`<div role="button" tabindex="0" onclick="go()">Go</div>`), nil},
		{"clickable button", page(`<button onclick="go()">Go</button>`), nil},
		{"positive tabindex", page(`<a href="/" tabindex="3">x</a>`), []models.Severity{warnSev}},
		{"duplicate accesskey", page(`<a href="/a" accesskey="s">a</a><a href="/b" accesskey="S">b</a>`), []models.Severity{infoSev}},
	})
}

func TestFocusChecker(t *testing.T) {
	cfg := defaultConfig()
	runRuleCases(t, FocusChecker{}, cfg, []ruleCase{
		{"outline removed", page(`<button style="outline: none;">x</button>`), []models.Severity{warnSev}},
		{"outline on div ignored", page(`<div style="outline:0">x</div>`), nil},
		{"link out of tab order", page(`<a href="/x" tabindex="-1">x</a>`), []models.Severity{warnSev}},
		{"autofocus", page(`<input aria-label="q" autofocus>`), []models.Severity{infoSev}},
	})

	result := runChecker(t, FocusChecker{}, page(`<button style="outline:none">x</button>`), cfg)
	if result.Issues[0].WCAGRef != "2.4.7" {
		t.Errorf("Expected 2.4.7 for focus visibility, but got %s", result.Issues[0].WCAGRef)
	}
}

func TestSemanticChecker(t *testing.T) {
	runRuleCases(t, SemanticChecker{}, defaultConfig(), []ruleCase{
		{"bare document", `<html><body><p>Text</p></body></html>`, nil},
		{"empty lang", `<html lang=" "><head><title>T</title></head><body></body></html>`, []models.Severity{errSev}},
		{"empty title", `<html lang="en"><head><title> </title></head><body></body></html>`, []models.Severity{errSev}},
		{"two mains", page(`<div role="main">Other</div>`), []models.Severity{warnSev}},
		{"hidden second main", page(`<main hidden>Old</main>`), nil},
		{"duplicate id", page(`<p id="a">1</p><p id="a">2</p><p id="a">3</p>`), []models.Severity{errSev}},
	})
}
