// internal/audit/thresholds.go
package audit

import (
	"fmt"

	"github.com/stretchr/testify/assert"
)

// ThresholdResult is the outcome of comparing one category against its threshold.
type ThresholdResult struct {
	Category  Category
	Threshold int
	Score     int
	// Scored is false when Lighthouse did not grade the category. Unscored categories fail.
	Scored bool
	Passed bool
}

func (r ThresholdResult) String() string {
	switch {
	case !r.Scored:
		return fmt.Sprintf("%s: not scored (threshold %d)", r.Category, r.Threshold)
	case r.Passed:
		return fmt.Sprintf("%s: %d >= %d", r.Category, r.Score, r.Threshold)
	default:
		return fmt.Sprintf("%s: %d < %d", r.Category, r.Score, r.Threshold)
	}
}

// CheckThresholds evaluates every thresholded category, in reporting order. It never
// stops at the first failure.
func CheckThresholds(scores Scores, thresholds Thresholds) []ThresholdResult {
	results := make([]ThresholdResult, 0, len(thresholds))
	for _, c := range Categories {
		threshold, ok := thresholds[c]
		if !ok {
			continue
		}
		score, scored := scores[c]
		results = append(results, ThresholdResult{
			Category:  c,
			Threshold: threshold,
			Score:     score,
			Scored:    scored,
			Passed:    scored && score >= threshold,
		})
	}
	return results
}

// Failures filters results down to the failed checks.
func Failures(results []ThresholdResult) []ThresholdResult {
	var failed []ThresholdResult
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// AssertThresholds soft-asserts every category so all failures are reported together.
// It returns true when every check passed.
func AssertThresholds(t assert.TestingT, label string, scores Scores, thresholds Thresholds) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	ok := true
	for _, r := range CheckThresholds(scores, thresholds) {
		if !r.Scored {
			ok = assert.Fail(t, fmt.Sprintf("%s: %s was not scored", label, r.Category),
				"threshold %d cannot be met by a missing score", r.Threshold) && ok
			continue
		}
		ok = assert.GreaterOrEqual(t, r.Score, r.Threshold, "%s: %s score", label, r.Category) && ok
	}
	return ok
}

// AccessibilityBudget bounds the number of violating rules on a page.
type AccessibilityBudget struct {
	MaxViolations int
	MaxCritical   int
}

// BudgetFromConfig returns the configured default budget.
func BudgetFromConfig(maxViolations, maxCritical int) AccessibilityBudget {
	return AccessibilityBudget{MaxViolations: maxViolations, MaxCritical: maxCritical}
}

// BudgetResult is the outcome of one accessibility budget limit.
type BudgetResult struct {
	Name   string
	Limit  int
	Actual int
	Passed bool
}

func (r BudgetResult) String() string {
	op := "<="
	if !r.Passed {
		op = ">"
	}
	return fmt.Sprintf("%s: %d %s %d", r.Name, r.Actual, op, r.Limit)
}

// CheckBudget evaluates both budget limits against result.
func CheckBudget(result AccessibilityResult, budget AccessibilityBudget) []BudgetResult {
	total := len(result.Violations)
	critical := result.CountByImpact(ImpactCritical)
	return []BudgetResult{
		{Name: "violations", Limit: budget.MaxViolations, Actual: total, Passed: total <= budget.MaxViolations},
		{Name: "critical", Limit: budget.MaxCritical, Actual: critical, Passed: critical <= budget.MaxCritical},
	}
}

// AssertBudget soft-asserts both limits.
func AssertBudget(t assert.TestingT, result AccessibilityResult, budget AccessibilityBudget) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	ok := true
	for _, r := range CheckBudget(result, budget) {
		ok = assert.LessOrEqual(t, r.Actual, r.Limit, "%s: %s accessibility violations", result.PageID, r.Name) && ok
	}
	return ok
}
