// internal/reporting/accessibility.go
package reporting

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

// AccessibilityTitle heads the consolidated accessibility document.
const AccessibilityTitle = "Accessibility Audit Reports (Axe-Core)"

// AccessibilityPage is one page's entry in the consolidated report.
// Exactly one of Summary and Err is set.
type AccessibilityPage struct {
	ID         string
	Title      string
	DetailFile string
	Summary    *AccessibilitySummary
	Top        []audit.Violation
	More       int
	Err        *ArtifactError
}

// Found reports whether the page's artifact was read successfully.
func (p AccessibilityPage) Found() bool { return p.Err == nil }

// AccessibilityReport is the consolidated view over every configured page.
type AccessibilityReport struct {
	Title       string
	GeneratedAt time.Time
	Pages       []AccessibilityPage
}

// Generated returns the formatted generation timestamp.
func (r *AccessibilityReport) Generated() string { return r.GeneratedAt.Format(TimestampLayout) }

// Missing lists the pages rendered as placeholders.
func (r *AccessibilityReport) Missing() []string {
	var ids []string
	for _, p := range r.Pages {
		if !p.Found() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// AccessibilityAggregator consolidates per-page axe artifacts into one document.
type AccessibilityAggregator struct {
	aggregator
	top int
}

// NewAccessibilityAggregator reads from the configured accessibility report directory.
func NewAccessibilityAggregator(cfg config.Interface, logger *zap.Logger, opts ...AggregatorOption) *AccessibilityAggregator {
	rc := cfg.Reports()
	return &AccessibilityAggregator{
		aggregator: newAggregator(rc.AccessibilityDir, rc.Pages, rc.Markdown, logger.Named("accessibility_aggregator"), opts),
		top:        rc.TopViolations,
	}
}

// Aggregate reads every configured page in order. Unreadable artifacts become placeholders;
// only cancellation is returned as an error.
func (a *AccessibilityAggregator) Aggregate(ctx context.Context) (*AccessibilityReport, error) {
	report := &AccessibilityReport{Title: AccessibilityTitle, GeneratedAt: a.now()}
	for _, id := range a.pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := AccessibilityPage{ID: id, Title: PageTitle(id), DetailFile: artifact.AccessibilityFile(id)}
		summary, aerr := readArtifact(a.dir, id, page.DetailFile, ParseAccessibilityArtifact)
		if aerr != nil {
			a.logger.Warn("Accessibility artifact unavailable, rendering placeholder.",
				zap.String("page", id), zap.Error(aerr))
			page.Err = aerr
		} else {
			page.Summary = summary
			page.Top = summary.Violations
			if len(page.Top) > a.top {
				page.More = len(page.Top) - a.top
				page.Top = page.Top[:a.top]
			}
		}
		report.Pages = append(report.Pages, page)
	}
	return report, nil
}

// Generate aggregates and writes consolidated-report.html into the accessibility directory.
func (a *AccessibilityAggregator) Generate(ctx context.Context) (string, error) {
	report, err := a.Aggregate(ctx)
	if err != nil {
		return "", err
	}
	html, err := a.render("accessibility-consolidated.html.tmpl", report)
	if err != nil {
		return "", err
	}
	path, err := a.write(ctx, html, func(buf *bytes.Buffer) error {
		return WriteAccessibilityMarkdown(buf, report)
	})
	if err != nil {
		return path, err
	}
	a.logger.Info("Consolidated accessibility report generated.",
		zap.String("path", path), zap.Int("pages", len(report.Pages)), zap.Strings("missing", report.Missing()))
	return path, nil
}
