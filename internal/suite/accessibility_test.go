//go:build e2e

package suite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
	"github.com/xkilldash9x/scalpel-e2e/internal/fixtures"
)

var accessibilityBudgets = map[string]audit.AccessibilityBudget{
	fixtures.HomePage:     {MaxViolations: 20, MaxCritical: 1},
	fixtures.LoginPage:    {MaxViolations: 25, MaxCritical: 2},
	fixtures.RegisterPage: {MaxViolations: 25, MaxCritical: 2},
}

func TestAccessibility(t *testing.T) {
	for _, name := range []string{fixtures.HomePage, fixtures.LoginPage, fixtures.RegisterPage} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h := fixtures.New(t)
			page, err := h.Pages.Page(name)
			require.NoError(t, err)
			require.NoError(t, page.Driver().Navigate(h.Ctx, page.Path()))

			scanner := h.AccessibilityScanner()
			results, err := scanner.Analyze(h.Ctx, h.Session)
			require.NoError(t, err)
			path, err := scanner.CreateReport(h.Ctx, h.Session, results)
			require.NoError(t, err)
			assert.FileExists(t, path)

			audit.AssertBudget(t, results.Summarize(), accessibilityBudgets[name])
		})
	}
}
