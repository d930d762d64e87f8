package models

import (
	"fmt"

	"github.com/google/uuid"
)

// NoWCAGReference marks an issue whose (type, level) pair has no clause.
const NoWCAGReference = "N/A"

const helpURLFormat = "https://www.w3.org/WAI/WCAG21/Understanding/%s.html"

type clauseKey struct {
	checker CheckerType
	level   WCAGLevel
}

var wcagClauses = map[clauseKey]string{
	{CheckerAltText, LevelA}:         "1.1.1",
	{CheckerColorContrast, LevelAA}:  "1.4.3",
	{CheckerColorContrast, LevelAAA}: "1.4.6",
	{CheckerHeading, LevelA}:         "1.3.1",
	{CheckerHeading, LevelAA}:        "2.4.6",
	{CheckerARIA, LevelA}:            "4.1.2",
	{CheckerFormLabels, LevelA}:      "3.3.2",
	{CheckerKeyboard, LevelA}:        "2.1.1",
	{CheckerFocus, LevelA}:           "2.4.3",
	{CheckerFocus, LevelAA}:          "2.4.7",
	{CheckerSemanticHTML, LevelA}:    "1.3.1",
}

// WCAGReference returns the clause registered for a checker at a level, or
// NoWCAGReference.
func WCAGReference(t CheckerType, level WCAGLevel) string {
	if ref, ok := wcagClauses[clauseKey{t, level}]; ok {
		return ref
	}
	return NoWCAGReference
}

// IssueOption sets one of the optional fields of an issue.
type IssueOption func(*AccessibilityIssue)

// WithElement attaches the offending element.
func WithElement(el Element) IssueOption {
	return func(i *AccessibilityIssue) { i.Element = &el }
}

// WithLocation attaches the element's position in the document.
func WithLocation(loc Location) IssueOption {
	return func(i *AccessibilityIssue) { i.Location = &loc }
}

// WithSuggestedFix attaches a remediation hint.
func WithSuggestedFix(fix string) IssueOption {
	return func(i *AccessibilityIssue) { i.SuggestedFix = fix }
}

// NewIssue builds an immutable issue with a fresh id and the WCAG clause for
// (t, level). The id is a UUIDv7: millisecond timestamp prefix plus random
// suffix.
func NewIssue(t CheckerType, severity Severity, level WCAGLevel, message, description string, opts ...IssueOption) AccessibilityIssue {
	issue := AccessibilityIssue{
		ID:          newIssueID(),
		Type:        t,
		Severity:    severity,
		WCAGLevel:   level,
		WCAGRef:     WCAGReference(t, level),
		Message:     message,
		Description: description,
	}
	if issue.WCAGRef != NoWCAGReference {
		issue.HelpURL = fmt.Sprintf(helpURLFormat, issue.WCAGRef)
	}
	for _, opt := range opts {
		opt(&issue)
	}
	return issue
}

func newIssueID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return uuid.NewString()
	}
	return id.String()
}
