// internal/audit/accessibility_test.go
package audit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
)

const sampleAxeResults = `{
  "url": "http://localhost:3000/login",
  "timestamp": "2026-10-16T10:00:00.000Z",
  "testEngine": {"name": "axe-core", "version": "4.10.0"},
  "violations": [
    {"id": "color-contrast", "impact": "serious", "description": "Ensures <text> contrast", "help": "Contrast", "helpUrl": "https://dequeuniversity.com/rules/axe/4.10/color-contrast",
     "tags": ["wcag2aa", "wcag143"], "nodes": [{"html": "<a>x</a>", "target": ["a"], "failureSummary": "Fix it"}, {"html": "<b>y</b>", "target": ["b"]}]},
    {"id": "label", "impact": "critical", "description": "Ensures every form element has a label", "help": "Labels", "helpUrl": "https://dequeuniversity.com/rules/axe/4.10/label",
     "tags": ["wcag2a"], "nodes": [{"html": "<input>", "target": [["#host", "input"]]}]}
  ],
  "passes": [{"id": "document-title", "nodes": []}],
  "incomplete": [],
  "inapplicable": []
}`

// axeDriver answers the scanner's scripts.
type axeDriver struct {
	url      string
	loaded   bool
	injected []string
}

func (d *axeDriver) Navigate(context.Context, string) error                 { return nil }
func (d *axeDriver) Click(context.Context, browser.Locator) error           { return nil }
func (d *axeDriver) Fill(context.Context, browser.Locator, string) error    { return nil }
func (d *axeDriver) Check(context.Context, browser.Locator) error           { return nil }
func (d *axeDriver) Press(context.Context, string) error                    { return nil }
func (d *axeDriver) Text(context.Context, browser.Locator) (string, error)  { return "", nil }
func (d *axeDriver) Visible(context.Context, browser.Locator) (bool, error) { return true, nil }
func (d *axeDriver) URL(context.Context) (string, error)                    { return d.url, nil }

func (d *axeDriver) Evaluate(_ context.Context, expr string, out any) error {
	switch {
	case strings.HasPrefix(expr, "typeof window.axe"):
		return json.Unmarshal([]byte(map[bool]string{true: "true", false: "false"}[d.loaded]), out)
	case strings.HasPrefix(expr, "axe.run"):
		return json.Unmarshal([]byte(sampleAxeResults), out)
	default:
		d.injected = append(d.injected, expr)
		d.loaded = true
		return nil
	}
}

func TestAnalyzeInjectsOnce(t *testing.T) {
	cfg := testConfig(t)
	scanner := NewAccessibilityScanner(cfg, zaptest.NewLogger(t), WithAxeSource("/* axe */"))
	drv := &axeDriver{url: "http://localhost:3000/login"}

	results, err := scanner.Analyze(context.Background(), drv)
	require.NoError(t, err)
	_, err = scanner.Analyze(context.Background(), drv)
	require.NoError(t, err)

	assert.Equal(t, []string{"/* axe */"}, drv.injected, "axe-core is only injected when the page lacks it")
	require.Len(t, results.Violations, 2)
	assert.Equal(t, ImpactCritical, results.Violations[1].Impact)
	assert.Len(t, results.Violations[0].Nodes, 2)
}

func TestAnalyzeReadsConfiguredScript(t *testing.T) {
	cfg := testConfig(t)
	script := filepath.Join(t.TempDir(), "axe.min.js")
	require.NoError(t, os.WriteFile(script, []byte("window.axe = {};"), 0o644))
	cfg.AuditCfg.AxeScript = script

	drv := &axeDriver{url: "http://localhost:3000/"}
	_, err := NewAccessibilityScanner(cfg, zaptest.NewLogger(t)).Analyze(context.Background(), drv)
	require.NoError(t, err)
	assert.Equal(t, []string{"window.axe = {};"}, drv.injected)

	cfg.AuditCfg.AxeScript = filepath.Join(t.TempDir(), "missing.js")
	_, err = NewAccessibilityScanner(cfg, zaptest.NewLogger(t)).Analyze(context.Background(), &axeDriver{})
	assert.ErrorContains(t, err, "failed to load axe-core")
}

func TestSummarize(t *testing.T) {
	var results AxeResults
	require.NoError(t, json.Unmarshal([]byte(sampleAxeResults), &results))

	summary := results.Summarize()
	assert.Equal(t, "login-page", summary.PageID)
	assert.Equal(t, []Violation{
		{Description: "Ensures <text> contrast", RuleID: "color-contrast", Impact: ImpactSerious, Count: 2},
		{Description: "Ensures every form element has a label", RuleID: "label", Impact: ImpactCritical, Count: 1},
	}, summary.Violations)
	assert.Equal(t, 1, summary.CountByImpact(ImpactCritical))
	assert.Equal(t, 0, summary.CountByImpact(ImpactMinor))
}

func TestCreateReport(t *testing.T) {
	cfg := testConfig(t)
	var attached []string
	attacher := AttacherFunc(func(name, path, contentType string) error {
		attached = append(attached, name+"|"+contentType)
		return nil
	})
	fixed := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
	scanner := NewAccessibilityScanner(cfg, zaptest.NewLogger(t),
		WithAttacher(attacher), WithScannerClock(func() time.Time { return fixed }))

	var results AxeResults
	require.NoError(t, json.Unmarshal([]byte(sampleAxeResults), &results))

	drv := &axeDriver{url: "http://localhost:3000/register.html"}
	path, err := scanner.CreateReport(context.Background(), drv, &results)
	require.NoError(t, err, "the report directory is created on demand")

	assert.Equal(t, filepath.Join(cfg.Reports().AccessibilityDir, "accessibility-report-register-page.html"), path)
	assert.Equal(t, []string{"accessibility-report-register-page.html|text/html"}, attached)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, `content="`+artifact.AccessibilitySchema+`"`)
	assert.Contains(t, html, `Page URL: <a href="http://localhost:3000/register.html"`)
	assert.Contains(t, html, `axe-core found <span class="badge badge-warning">2</span> violations`)
	assert.Contains(t, html, "<td>color-contrast</td>")
	assert.Contains(t, html, "Ensures &lt;text&gt; contrast", "rule text is escaped")
	assert.Contains(t, html, "2026-10-16T10:00:00Z")
}

func TestCreateReportWithoutViolations(t *testing.T) {
	cfg := testConfig(t)
	scanner := NewAccessibilityScanner(cfg, zaptest.NewLogger(t))
	path, err := scanner.WriteReport("http://localhost:3000/", &AxeResults{URL: "http://localhost:3000/"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<span class="badge badge-warning">0</span>`)
	assert.True(t, strings.HasSuffix(path, "accessibility-report-home-page.html"))
}

func TestWriteReportKeepsDistinctPagesApart(t *testing.T) {
	cfg := testConfig(t)
	scanner := NewAccessibilityScanner(cfg, zaptest.NewLogger(t))

	var paths []string
	for _, u := range []string{"http://localhost:3000/", "about:blank", "http://localhost:3000/admin/settings", "http://localhost:3000/user/settings"} {
		path, err := scanner.WriteReport(u, &AxeResults{URL: u})
		require.NoError(t, err, u)
		paths = append(paths, filepath.Base(path))
	}
	assert.Equal(t, []string{
		"accessibility-report-home-page.html",
		"accessibility-report-about-blank-page.html",
		"accessibility-report-admin-settings-page.html",
		"accessibility-report-user-settings-page.html",
	}, paths)
}
