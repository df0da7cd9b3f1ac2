// internal/reporting/performance.go
package reporting

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

// PerformanceTitle heads the consolidated Lighthouse document.
const PerformanceTitle = "Lighthouse Performance Reports"

// PerformancePage is one page's entry in the consolidated report.
type PerformancePage struct {
	ID         string
	Title      string
	DetailFile string
	Summary    *PerformanceSummary
	Err        *ArtifactError
}

func (p PerformancePage) Found() bool { return p.Err == nil }

// PerformanceReport is the consolidated view over every configured page.
type PerformanceReport struct {
	Title       string
	GeneratedAt time.Time
	Pages       []PerformancePage
}

func (r *PerformanceReport) Generated() string { return r.GeneratedAt.Format(TimestampLayout) }

// Missing lists the pages rendered as placeholders.
func (r *PerformanceReport) Missing() []string {
	var ids []string
	for _, p := range r.Pages {
		if !p.Found() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// PerformanceAggregator consolidates per-page Lighthouse JSON artifacts.
type PerformanceAggregator struct {
	aggregator
}

// NewPerformanceAggregator reads from the configured Lighthouse report directory.
func NewPerformanceAggregator(cfg config.Interface, logger *zap.Logger, opts ...AggregatorOption) *PerformanceAggregator {
	rc := cfg.Reports()
	return &PerformanceAggregator{
		aggregator: newAggregator(rc.PerformanceDir, rc.Pages, rc.Markdown, logger.Named("performance_aggregator"), opts),
	}
}

// Aggregate reads every configured page in order, converting unreadable artifacts into placeholders.
func (a *PerformanceAggregator) Aggregate(ctx context.Context) (*PerformanceReport, error) {
	report := &PerformanceReport{Title: PerformanceTitle, GeneratedAt: a.now()}
	for _, id := range a.pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := PerformancePage{ID: id, Title: PageTitle(id), DetailFile: artifact.LighthouseHTMLFile(id)}
		summary, aerr := readArtifact(a.dir, id, artifact.LighthouseJSONFile(id), ParseLighthouseArtifact)
		if aerr != nil {
			a.logger.Warn("Lighthouse artifact unavailable, rendering placeholder.",
				zap.String("page", id), zap.Error(aerr))
			page.Err = aerr
		} else {
			page.Summary = summary
		}
		report.Pages = append(report.Pages, page)
	}
	return report, nil
}

// Generate aggregates and writes consolidated-report.html into the Lighthouse directory.
func (a *PerformanceAggregator) Generate(ctx context.Context) (string, error) {
	report, err := a.Aggregate(ctx)
	if err != nil {
		return "", err
	}
	html, err := a.render("lighthouse-consolidated.html.tmpl", report)
	if err != nil {
		return "", err
	}
	path, err := a.write(ctx, html, func(buf *bytes.Buffer) error {
		return WritePerformanceMarkdown(buf, report)
	})
	if err != nil {
		return path, err
	}
	a.logger.Info("Consolidated performance report generated.",
		zap.String("path", path), zap.Int("pages", len(report.Pages)), zap.Strings("missing", report.Missing()))
	return path, nil
}
