// Package models holds the data vocabulary shared by the checkers, the page
// auditor, the orchestrator and the reporters.
package models

import "time"

// Severity is the urgency class of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Severities lists every severity, most urgent first.
var Severities = []Severity{SeverityError, SeverityWarning, SeverityInfo}

// WCAGLevel is one of the three conformance tiers.
type WCAGLevel string

const (
	LevelA   WCAGLevel = "A"
	LevelAA  WCAGLevel = "AA"
	LevelAAA WCAGLevel = "AAA"
)

// WCAGLevels lists the conformance tiers in escalating order.
var WCAGLevels = []WCAGLevel{LevelA, LevelAA, LevelAAA}

// Valid reports whether l is one of A, AA or AAA.
func (l WCAGLevel) Valid() bool {
	switch l {
	case LevelA, LevelAA, LevelAAA:
		return true
	}
	return false
}

// CheckerType tags the checker that raised an issue.
type CheckerType string

const (
	CheckerAltText       CheckerType = "alt-text"
	CheckerColorContrast CheckerType = "color-contrast"
	CheckerHeading       CheckerType = "heading-structure"
	CheckerARIA          CheckerType = "aria"
	CheckerFormLabels    CheckerType = "form-labels"
	CheckerKeyboard      CheckerType = "keyboard-navigation"
	CheckerFocus         CheckerType = "focus-management"
	CheckerSemanticHTML  CheckerType = "semantic-html"
)

// CheckerTypes lists every known checker type in registry order.
var CheckerTypes = []CheckerType{
	CheckerAltText,
	CheckerColorContrast,
	CheckerHeading,
	CheckerARIA,
	CheckerFormLabels,
	CheckerKeyboard,
	CheckerFocus,
	CheckerSemanticHTML,
}

// Valid reports whether t names a known checker.
func (t CheckerType) Valid() bool {
	for _, known := range CheckerTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Element describes the DOM element an issue points at.
type Element struct {
	Selector   string            `json:"selector"`
	TagName    string            `json:"tagName"`
	Attributes map[string]string `json:"attributes"`
	HTML       string            `json:"html"`
	Text       string            `json:"text,omitempty"`
}

// Location pins an issue inside the rendered document. Line and Column stay
// nil for browser-driven checks since no source map exists.
type Location struct {
	XPath  string `json:"xpath"`
	Line   *int   `json:"line,omitempty"`
	Column *int   `json:"column,omitempty"`
}

// AccessibilityIssue is a single finding. Build it with NewIssue.
type AccessibilityIssue struct {
	ID           string      `json:"id"`
	Type         CheckerType `json:"type"`
	Severity     Severity    `json:"severity"`
	WCAGLevel    WCAGLevel   `json:"wcagLevel"`
	WCAGRef      string      `json:"wcagReference"`
	Message      string      `json:"message"`
	Description  string      `json:"description"`
	Element      *Element    `json:"element,omitempty"`
	Location     *Location   `json:"location,omitempty"`
	SuggestedFix string      `json:"suggestedFix,omitempty"`
	HelpURL      string      `json:"helpUrl,omitempty"`
}

// CheckerResult is what one checker produced for one page.
type CheckerResult struct {
	Type     CheckerType
	Issues   []AccessibilityIssue
	Duration time.Duration
}

// PageHealthReport is the outcome of auditing one URL.
type PageHealthReport struct {
	URL              string               `json:"url"`
	Timestamp        time.Time            `json:"timestamp"`
	DurationMS       int64                `json:"durationMs"`
	TotalIssues      int                  `json:"totalIssues"`
	IssuesBySeverity map[Severity]int     `json:"issuesBySeverity"`
	IssuesByType     map[CheckerType]int  `json:"issuesByType"`
	Compliance       map[WCAGLevel]bool   `json:"wcagCompliance"`
	Issues           []AccessibilityIssue `json:"issues"`
	Score            int                  `json:"score"`
}

// Summary aggregates a multi-URL run.
type Summary struct {
	TotalPages   int       `json:"totalPages"`
	TotalIssues  int       `json:"totalIssues"`
	OverallScore int       `json:"overallScore"`
	Timestamp    time.Time `json:"timestamp"`
	DurationMS   int64     `json:"durationMs"`
}

// HealthCheckReport is handed to reporters read-only.
type HealthCheckReport struct {
	Summary Summary            `json:"summary"`
	Pages   []PageHealthReport `json:"pages"`
	Config  HealthCheckConfig  `json:"config"`
}
