// internal/reporting/parse.go
package reporting

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
)

// ErrUnrecognizedArtifact is returned when an artifact does not carry the schema the parser understands.
var ErrUnrecognizedArtifact = errors.New("unrecognized artifact")

// ImpactCounts tallies violation occurrences per axe-core severity.
type ImpactCounts struct {
	Critical int
	Serious  int
	Moderate int
	Minor    int
}

// Add credits n occurrences to impact. Unknown severities are ignored.
func (c *ImpactCounts) Add(impact audit.Impact, n int) {
	switch impact {
	case audit.ImpactCritical:
		c.Critical += n
	case audit.ImpactSerious:
		c.Serious += n
	case audit.ImpactModerate:
		c.Moderate += n
	case audit.ImpactMinor:
		c.Minor += n
	}
}

// Get returns the tally for impact.
func (c ImpactCounts) Get(impact audit.Impact) int {
	switch impact {
	case audit.ImpactCritical:
		return c.Critical
	case audit.ImpactSerious:
		return c.Serious
	case audit.ImpactModerate:
		return c.Moderate
	case audit.ImpactMinor:
		return c.Minor
	}
	return 0
}

// AccessibilitySummary is what the consolidated report needs from one per-page artifact.
type AccessibilitySummary struct {
	URL             string
	TotalViolations int
	Impacts         ImpactCounts
	// Violations holds every recognized summary row in document order.
	Violations []audit.Violation
}

// ParseAccessibilityArtifact reads an axe-html/v1 document written by the accessibility scanner.
func ParseAccessibilityArtifact(r io.Reader) (*AccessibilitySummary, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse accessibility artifact: %w", err)
	}

	schema, _ := doc.Find(fmt.Sprintf("meta[name=%q]", artifact.SchemaMetaName)).First().Attr("content")
	if schema != artifact.AccessibilitySchema {
		return nil, fmt.Errorf("%w: schema %q, want %q", ErrUnrecognizedArtifact, schema, artifact.AccessibilitySchema)
	}

	summary := &AccessibilitySummary{URL: "N/A"}
	if u := strings.TrimSpace(doc.Find(".page-url a").First().Text()); u != "" {
		summary.URL = u
	}

	badge := doc.Find("h2 span.badge-warning").First()
	if badge.Length() == 0 {
		return nil, fmt.Errorf("%w: violation count heading missing", ErrUnrecognizedArtifact)
	}
	total, err := strconv.Atoi(strings.TrimSpace(badge.Text()))
	if err != nil || total < 0 {
		return nil, fmt.Errorf("%w: bad violation count %q", ErrUnrecognizedArtifact, badge.Text())
	}
	summary.TotalViolations = total

	var rowErr error
	doc.Find("table#violations-summary > tbody > tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return true
		}
		impact := audit.Impact(strings.TrimSpace(cells.Eq(3).Text()))
		if !impact.Valid() {
			return true
		}
		count, err := strconv.Atoi(strings.TrimSpace(cells.Eq(4).Text()))
		if err != nil || count < 0 {
			rowErr = fmt.Errorf("%w: row %d has bad count %q", ErrUnrecognizedArtifact, i, cells.Eq(4).Text())
			return false
		}
		summary.Impacts.Add(impact, count)
		summary.Violations = append(summary.Violations, audit.Violation{
			Description: strings.TrimSpace(cells.Eq(0).Text()),
			RuleID:      strings.TrimSpace(cells.Eq(1).Text()),
			Impact:      impact,
			Count:       count,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return summary, nil
}

// Bucket is the three-tier severity a category score renders with.
type Bucket string

const (
	BucketGood    Bucket = "good"
	BucketAverage Bucket = "average"
	BucketPoor    Bucket = "poor"
)

// BucketFor grades a 0..1 score. An ungraded (nil) score is poor.
func BucketFor(score *float64) Bucket {
	switch {
	case score == nil:
		return BucketPoor
	case *score >= 0.9:
		return BucketGood
	case *score >= 0.5:
		return BucketAverage
	default:
		return BucketPoor
	}
}

// ScoreCard is one rendered Lighthouse category.
type ScoreCard struct {
	ID     string
	Title  string
	Score  *float64
	Bucket Bucket
}

// Display returns the 0..100 score, or "n/a" when the category was not graded.
func (c ScoreCard) Display() string {
	if c.Score == nil {
		return "n/a"
	}
	return strconv.Itoa(audit.ScoreFromFraction(*c.Score))
}

// PerformanceSummary is what the consolidated report needs from one Lighthouse JSON artifact.
type PerformanceSummary struct {
	URL               string
	LighthouseVersion string
	// Cards keep the category order of the source document.
	Cards []ScoreCard
}

// ParseLighthouseArtifact reads a lighthouse-json/v1 document.
func ParseLighthouseArtifact(r io.Reader) (*PerformanceSummary, error) {
	report, err := artifact.DecodeLighthouse(r)
	if err != nil {
		return nil, err
	}
	if report.LighthouseVersion == "" {
		return nil, fmt.Errorf("%w: lighthouseVersion missing, want %s", ErrUnrecognizedArtifact, artifact.LighthouseSchema)
	}

	summary := &PerformanceSummary{URL: report.URL(), LighthouseVersion: report.LighthouseVersion}
	for pair := report.Categories.Oldest(); pair != nil; pair = pair.Next() {
		cat := pair.Value
		if cat.Score != nil && (*cat.Score < 0 || *cat.Score > 1) {
			return nil, fmt.Errorf("%w: category %s score %v outside 0..1", ErrUnrecognizedArtifact, pair.Key, *cat.Score)
		}
		title := cat.Title
		if title == "" {
			title = pair.Key
		}
		summary.Cards = append(summary.Cards, ScoreCard{
			ID:     pair.Key,
			Title:  title,
			Score:  cat.Score,
			Bucket: BucketFor(cat.Score),
		})
	}
	return summary, nil
}
