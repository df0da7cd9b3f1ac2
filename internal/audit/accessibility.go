// internal/audit/accessibility.go
package audit

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var axeReportTemplate = template.Must(template.New("axe-report.html.tmpl").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFS, "templates/axe-report.html.tmpl"))

// Impact is axe-core's severity scale.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
	ImpactMinor    Impact = "minor"
)

// Impacts lists every severity from most to least severe.
var Impacts = []Impact{ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor}

// Valid reports whether i is one of the four known severities.
func (i Impact) Valid() bool {
	switch i {
	case ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor:
		return true
	}
	return false
}

// AxeResults is axe-core's result object as returned by axe.run.
type AxeResults struct {
	URL          string    `json:"url"`
	Timestamp    string    `json:"timestamp"`
	TestEngine   AxeEngine `json:"testEngine"`
	Violations   []AxeRule `json:"violations"`
	Passes       []AxeRule `json:"passes"`
	Incomplete   []AxeRule `json:"incomplete"`
	Inapplicable []AxeRule `json:"inapplicable"`
}

type AxeEngine struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// AxeRule is one rule's outcome and the nodes it applied to.
type AxeRule struct {
	ID          string    `json:"id"`
	Impact      Impact    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Tags        []string  `json:"tags"`
	Nodes       []AxeNode `json:"nodes"`
}

type AxeNode struct {
	HTML           string `json:"html"`
	Target         []any  `json:"target"`
	FailureSummary string `json:"failureSummary"`
	Impact         Impact `json:"impact"`
}

// Violation is a projected violation row.
type Violation struct {
	Description string
	RuleID      string
	Impact      Impact
	Count       int
}

// AccessibilityResult is the per-page projection of an axe run.
type AccessibilityResult struct {
	PageID     string
	URL        string
	Violations []Violation
}

// CountByImpact returns how many violating rules have the given severity.
func (r AccessibilityResult) CountByImpact(impact Impact) int {
	n := 0
	for _, v := range r.Violations {
		if v.Impact == impact {
			n++
		}
	}
	return n
}

// Summarize projects raw results onto the result row shape.
func (r *AxeResults) Summarize() AccessibilityResult {
	out := AccessibilityResult{PageID: PageIdentifier(r.URL), URL: r.URL}
	for _, rule := range r.Violations {
		out.Violations = append(out.Violations, Violation{
			Description: rule.Description,
			RuleID:      rule.ID,
			Impact:      rule.Impact,
			Count:       len(rule.Nodes),
		})
	}
	return out
}

// AccessibilityScanner runs axe-core in the page and renders its results.
type AccessibilityScanner struct {
	cfg      config.AuditConfig
	dir      string
	logger   *zap.Logger
	attacher Attacher
	now      func() time.Time

	sourceOnce sync.Once
	source     string
	sourceErr  error
}

// ScannerOption customizes an AccessibilityScanner.
type ScannerOption func(*AccessibilityScanner)

// WithAttacher registers every written artifact with a.
func WithAttacher(a Attacher) ScannerOption {
	return func(s *AccessibilityScanner) { s.attacher = a }
}

// WithAxeSource supplies the axe-core script directly instead of reading the configured file.
func WithAxeSource(src string) ScannerOption {
	return func(s *AccessibilityScanner) {
		s.sourceOnce.Do(func() { s.source = src })
	}
}

// WithScannerClock overrides the report timestamp clock.
func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *AccessibilityScanner) { s.now = now }
}

// NewAccessibilityScanner returns a scanner writing into the configured accessibility directory.
func NewAccessibilityScanner(cfg config.Interface, logger *zap.Logger, opts ...ScannerOption) *AccessibilityScanner {
	s := &AccessibilityScanner{
		cfg:      cfg.Audit(),
		dir:      cfg.Reports().AccessibilityDir,
		logger:   logger.Named("accessibility"),
		attacher: noopAttacher{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AccessibilityScanner) axeSource() (string, error) {
	s.sourceOnce.Do(func() {
		data, err := os.ReadFile(s.cfg.AxeScript)
		if err != nil {
			s.sourceErr = fmt.Errorf("failed to load axe-core from %s: %w", s.cfg.AxeScript, err)
			return
		}
		s.source = string(data)
	})
	return s.source, s.sourceErr
}

// Analyze runs axe-core against the loaded page and returns its results unmodified.
func (s *AccessibilityScanner) Analyze(ctx context.Context, drv browser.Driver) (*AxeResults, error) {
	var loaded bool
	if err := drv.Evaluate(ctx, `typeof window.axe !== 'undefined'`, &loaded); err != nil {
		return nil, fmt.Errorf("failed to check for axe-core: %w", err)
	}
	if !loaded {
		src, err := s.axeSource()
		if err != nil {
			return nil, err
		}
		if err := drv.Evaluate(ctx, src, nil); err != nil {
			return nil, fmt.Errorf("failed to inject axe-core: %w", err)
		}
	}

	var results AxeResults
	if err := drv.Evaluate(ctx, `axe.run(document)`, &results); err != nil {
		return nil, fmt.Errorf("axe-core run failed: %w", err)
	}

	s.logger.Info("Accessibility scan complete.",
		zap.String("url", results.URL),
		zap.Int("violations", len(results.Violations)),
		zap.Int("passes", len(results.Passes)))
	return &results, nil
}

type axeReportView struct {
	Schema     string
	SchemaMeta string
	PageID     string
	URL        string
	Generated  string
	Engine     AxeEngine
	Violations []axeViolationView
	Passes     int
	Incomplete int
}

type axeViolationView struct {
	Index int
	AxeRule
	Count int
}

// CreateReport renders results into accessibility-report-<page id>.html, keyed by the
// driver's current URL, and attaches it to the run. The directory is created on demand.
func (s *AccessibilityScanner) CreateReport(ctx context.Context, drv browser.Driver, results *AxeResults) (string, error) {
	pageURL, err := drv.URL(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page URL for report: %w", err)
	}
	return s.WriteReport(pageURL, results)
}

// WriteReport renders results for pageURL without touching a browser.
func (s *AccessibilityScanner) WriteReport(pageURL string, results *AxeResults) (string, error) {
	pageID := PageIdentifier(pageURL)
	view := axeReportView{
		Schema:     artifact.AccessibilitySchema,
		SchemaMeta: artifact.SchemaMetaName,
		PageID:     pageID,
		URL:        pageURL,
		Generated:  s.now().UTC().Format(time.RFC3339),
		Engine:     results.TestEngine,
		Passes:     len(results.Passes),
		Incomplete: len(results.Incomplete),
	}
	for i, rule := range results.Violations {
		view.Violations = append(view.Violations, axeViolationView{Index: i + 1, AxeRule: rule, Count: len(rule.Nodes)})
	}

	var buf bytes.Buffer
	if err := axeReportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render accessibility report: %w", err)
	}

	name := artifact.AccessibilityFile(pageID)
	path := filepath.Join(s.dir, name)
	if err := artifact.WriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	if err := s.attacher.Attach(name, path, "text/html"); err != nil {
		return path, fmt.Errorf("failed to attach %s: %w", name, err)
	}

	s.logger.Info("Accessibility report written.", zap.String("page", pageID), zap.String("path", path))
	return path, nil
}
