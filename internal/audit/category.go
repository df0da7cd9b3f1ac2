// internal/audit/category.go
package audit

import (
	"fmt"
	"math"
	"strings"
)

// Category is a Lighthouse scoring category, keyed the way thresholds name them.
type Category string

const (
	CategoryPerformance   Category = "performance"
	CategoryAccessibility Category = "accessibility"
	CategoryBestPractices Category = "bestPractices"
	CategorySEO           Category = "seo"
)

// Categories lists every category in reporting order.
var Categories = []Category{CategoryPerformance, CategoryAccessibility, CategoryBestPractices, CategorySEO}

// LighthouseID returns the id Lighthouse uses in its JSON output.
func (c Category) LighthouseID() string {
	if c == CategoryBestPractices {
		return "best-practices"
	}
	return string(c)
}

// ParseCategory accepts a category in any of its spellings: "bestPractices",
// "best-practices" or the lower-cased "bestpractices" configuration loaders produce.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(s))
	for _, c := range Categories {
		if strings.ToLower(string(c)) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown lighthouse category %q", s)
}

// Scores maps categories to 0-100 scores. A category Lighthouse could not grade is absent.
type Scores map[Category]int

// ScoreFromFraction converts Lighthouse's 0..1 score to the 0-100 scale.
func ScoreFromFraction(f float64) int {
	return int(math.Round(f * 100))
}

// Thresholds maps categories to the minimum acceptable 0-100 score.
type Thresholds map[Category]int

// DefaultThresholds requires 50 in every category.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CategoryPerformance:   50,
		CategoryAccessibility: 50,
		CategoryBestPractices: 50,
		CategorySEO:           50,
	}
}

// ParseThresholds converts configuration keys into Thresholds.
func ParseThresholds(raw map[string]int) (Thresholds, error) {
	out := make(Thresholds, len(raw))
	for k, v := range raw {
		c, err := ParseCategory(k)
		if err != nil {
			return nil, err
		}
		if v < 0 || v > 100 {
			return nil, fmt.Errorf("threshold for %s must be between 0 and 100, got %d", c, v)
		}
		out[c] = v
	}
	return out, nil
}
