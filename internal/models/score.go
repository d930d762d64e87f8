package models

import "math"

const maxScore = 100

var severityWeights = map[Severity]float64{
	SeverityError:   10,
	SeverityWarning: 5,
	SeverityInfo:    1,
}

// CalculateScore starts at 100, subtracts a weight per issue (error 10,
// warning 5, info 1) and floors the result at 0. The order of issues does not
// matter.
func CalculateScore(issues []AccessibilityIssue) int {
	score := float64(maxScore)
	for _, issue := range issues {
		score -= severityWeights[issue.Severity]
	}
	return int(math.Round(math.Max(0, score)))
}

// Compliance reports, for each WCAG level, whether no error-severity issue is
// tagged with exactly that level.
func Compliance(issues []AccessibilityIssue) map[WCAGLevel]bool {
	compliance := make(map[WCAGLevel]bool, len(WCAGLevels))
	for _, level := range WCAGLevels {
		compliance[level] = true
	}
	for _, issue := range issues {
		if _, known := compliance[issue.WCAGLevel]; known && issue.Severity == SeverityError {
			compliance[issue.WCAGLevel] = false
		}
	}
	return compliance
}

// CountBySeverity buckets issues by severity; every severity is present.
func CountBySeverity(issues []AccessibilityIssue) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, s := range Severities {
		counts[s] = 0
	}
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}

// CountByType buckets issues by checker type, zero-filled for every known
// type.
func CountByType(issues []AccessibilityIssue) map[CheckerType]int {
	counts := make(map[CheckerType]int, len(CheckerTypes))
	for _, t := range CheckerTypes {
		counts[t] = 0
	}
	for _, issue := range issues {
		counts[issue.Type]++
	}
	return counts
}

// MeanScore is the arithmetic mean of the page scores rounded to the nearest
// integer. An empty run scores 100.
func MeanScore(pages []PageHealthReport) int {
	if len(pages) == 0 {
		return maxScore
	}
	total := 0
	for _, p := range pages {
		total += p.Score
	}
	return int(math.Round(float64(total) / float64(len(pages))))
}
