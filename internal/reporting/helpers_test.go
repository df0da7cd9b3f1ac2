// internal/reporting/helpers_test.go
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	root := t.TempDir()
	cfg.ReportsCfg.AccessibilityDir = filepath.Join(root, "accessibility-reports")
	cfg.ReportsCfg.PerformanceDir = filepath.Join(root, "lighthouse-reports")
	return cfg
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// axeResults builds n violations cycling through every impact, rule i having i+1 nodes.
func axeResults(n int) *audit.AxeResults {
	r := &audit.AxeResults{TestEngine: audit.AxeEngine{Name: "axe-core", Version: "4.10.0"}}
	for i := 0; i < n; i++ {
		rule := audit.AxeRule{
			ID:          fmt.Sprintf("rule-%02d", i),
			Impact:      audit.Impacts[i%len(audit.Impacts)],
			Description: fmt.Sprintf("Rule %d description", i),
			Help:        fmt.Sprintf("Rule %d help", i),
			Tags:        []string{"wcag2a"},
		}
		for j := 0; j <= i; j++ {
			rule.Nodes = append(rule.Nodes, audit.AxeNode{HTML: fmt.Sprintf("<div id=n%d>", j)})
		}
		r.Violations = append(r.Violations, rule)
	}
	return r
}

// writeAxeArtifact renders a per-page artifact the way the scanner does.
func writeAxeArtifact(t *testing.T, cfg config.Interface, pageURL string, results *audit.AxeResults) {
	t.Helper()
	results.URL = pageURL
	_, err := audit.NewAccessibilityScanner(cfg, testLogger(t)).WriteReport(pageURL, results)
	require.NoError(t, err)
}

// lighthouseJSON returns a Lighthouse document; a negative score encodes null.
func lighthouseJSON(url string, perf, a11y, bp, seo float64) string {
	score := func(v float64) string {
		if v < 0 {
			return "null"
		}
		return fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf(`{
  "lighthouseVersion": "12.2.1",
  "requestedUrl": %[1]q,
  "finalDisplayedUrl": %[1]q,
  "fetchTime": "2026-10-16T10:00:00.000Z",
  "audits": {"first-contentful-paint": {"score": 1}},
  "categories": {
    "performance": {"id": "performance", "title": "Performance", "score": %[2]s},
    "accessibility": {"id": "accessibility", "title": "Accessibility", "score": %[3]s},
    "best-practices": {"id": "best-practices", "title": "Best Practices", "score": %[4]s},
    "seo": {"id": "seo", "title": "SEO", "score": %[5]s}
  }
}`, url, score(perf), score(a11y), score(bp), score(seo))
}

func writeLighthouseArtifact(t *testing.T, cfg config.Interface, label, doc string) {
	t.Helper()
	dir := cfg.Reports().PerformanceDir
	require.NoError(t, artifact.WriteFile(filepath.Join(dir, artifact.LighthouseJSONFile(label)), []byte(doc)))
	require.NoError(t, artifact.WriteFile(filepath.Join(dir, artifact.LighthouseHTMLFile(label)), []byte("<html></html>")))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// withoutTimestamp drops the generation line so documents can be compared.
func withoutTimestamp(doc string) string {
	var kept []string
	for _, line := range strings.Split(doc, "\n") {
		if strings.Contains(line, "Generated: ") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
