//go:build e2e

package suite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
	"github.com/xkilldash9x/scalpel-e2e/internal/fixtures"
)

var performanceThresholds = []struct {
	page       string
	thresholds audit.Thresholds
}{
	{fixtures.HomePage, audit.Thresholds{
		audit.CategoryPerformance: 50, audit.CategoryAccessibility: 50, audit.CategoryBestPractices: 100, audit.CategorySEO: 50,
	}},
	{fixtures.LoginPage, audit.Thresholds{
		audit.CategoryPerformance: 90, audit.CategoryAccessibility: 50, audit.CategoryBestPractices: 100, audit.CategorySEO: 50,
	}},
	{fixtures.RegisterPage, audit.Thresholds{
		audit.CategoryPerformance: 50, audit.CategoryAccessibility: 50, audit.CategoryBestPractices: 70, audit.CategorySEO: 50,
	}},
}

// Lighthouse attaches to the browser through the fixed debugging port, so these run one
// at a time inside a group that holds the port.
func TestPerformance(t *testing.T) {
	g := fixtures.Serial(t)
	for _, tc := range performanceThresholds {
		g.Run(tc.page, func(t *testing.T, h *fixtures.Harness) {
			page, err := h.Pages.Page(tc.page)
			require.NoError(t, err)
			require.NoError(t, page.Driver().Navigate(h.Ctx, page.Path()))
			pageURL, err := h.Session.URL(h.Ctx)
			require.NoError(t, err)

			auditor := audit.NewPerformanceAuditor(h.Config, h.Logger)
			result, err := auditor.Audit(h.Ctx, g.Lease(), pageURL, audit.PageIdentifier(pageURL))
			require.NoError(t, err)
			require.NoError(t, h.Attachments.Attach(result.Label+".html", result.HTMLPath, "text/html"))

			audit.AssertThresholds(t, result.Label, result.Scores, tc.thresholds)
		})
	}
}
