// internal/audit/performance.go
package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

// ErrNoLease is returned when a performance audit is attempted without a live port lease.
var ErrNoLease = errors.New("performance audit requires a held debugging port lease")

// CommandRunner runs an external program. The default runs it with os/exec.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandRunnerFunc adapts a function to CommandRunner.
type CommandRunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f CommandRunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// PerformanceResult is the outcome of one Lighthouse run.
type PerformanceResult struct {
	Label    string
	URL      string
	Scores   Scores
	HTMLPath string
	JSONPath string
}

// PerformanceAuditor drives the Lighthouse CLI against a browser exposing a leased
// debugging port.
type PerformanceAuditor struct {
	cfg    config.AuditConfig
	dir    string
	runner CommandRunner
	logger *zap.Logger
}

// AuditorOption customizes a PerformanceAuditor.
type AuditorOption func(*PerformanceAuditor)

// WithCommandRunner replaces the process runner, mainly for tests.
func WithCommandRunner(r CommandRunner) AuditorOption {
	return func(a *PerformanceAuditor) { a.runner = r }
}

// NewPerformanceAuditor returns an auditor writing into the configured performance directory.
func NewPerformanceAuditor(cfg config.Interface, logger *zap.Logger, opts ...AuditorOption) *PerformanceAuditor {
	a := &PerformanceAuditor{
		cfg:    cfg.Audit(),
		dir:    cfg.Reports().PerformanceDir,
		runner: execRunner{},
		logger: logger.Named("performance"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit runs Lighthouse against pageURL through the leased port and writes
// lighthouse-report-<label>.html and .json. Categories Lighthouse could not grade are
// absent from the returned scores.
func (a *PerformanceAuditor) Audit(ctx context.Context, lease *PortLease, pageURL, label string) (*PerformanceResult, error) {
	if !lease.Held() {
		return nil, ErrNoLease
	}
	if label == "" {
		return nil, errors.New("performance audit requires a page label")
	}

	// 1. Run Lighthouse into a scratch directory.
	scratch, err := os.MkdirTemp("", "lighthouse-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	runCtx := ctx
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	base := filepath.Join(scratch, "report")
	args := a.args(pageURL, lease.Port(), base)
	a.logger.Info("Running Lighthouse.", zap.String("label", label), zap.String("url", pageURL), zap.Int("port", lease.Port()))
	start := time.Now()
	if out, err := a.runner.Run(runCtx, a.cfg.LighthouseBin, args...); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("lighthouse timed out after %s: %w", a.cfg.Timeout, err)
		}
		return nil, fmt.Errorf("lighthouse failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	// 2. Move both outputs into the report directory under the caller's label.
	result := &PerformanceResult{
		Label:    label,
		URL:      pageURL,
		HTMLPath: filepath.Join(a.dir, artifact.LighthouseHTMLFile(label)),
		JSONPath: filepath.Join(a.dir, artifact.LighthouseJSONFile(label)),
	}
	jsonData, err := os.ReadFile(base + ".report.json")
	if err != nil {
		return nil, fmt.Errorf("lighthouse produced no JSON report: %w", err)
	}
	htmlData, err := os.ReadFile(base + ".report.html")
	if err != nil {
		return nil, fmt.Errorf("lighthouse produced no HTML report: %w", err)
	}
	if err := artifact.WriteFile(result.JSONPath, jsonData); err != nil {
		return nil, err
	}
	if err := artifact.WriteFile(result.HTMLPath, htmlData); err != nil {
		return nil, err
	}

	// 3. Extract the scores.
	report, err := artifact.DecodeLighthouse(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to read scores for %s: %w", label, err)
	}
	result.Scores = ScoresFromReport(report)

	a.logger.Info("Lighthouse audit complete.",
		zap.String("label", label),
		zap.Duration("duration", time.Since(start)),
		zap.Any("scores", result.Scores))
	return result, nil
}

func (a *PerformanceAuditor) args(pageURL string, port int, outputBase string) []string {
	ids := make([]string, 0, len(Categories))
	for _, c := range Categories {
		ids = append(ids, c.LighthouseID())
	}
	screen := a.cfg.Screen
	args := []string{
		pageURL,
		"--port=" + strconv.Itoa(port),
		"--output=json",
		"--output=html",
		"--output-path=" + outputBase,
		"--only-categories=" + strings.Join(ids, ","),
		"--form-factor=" + a.cfg.FormFactor,
		"--screenEmulation.width=" + strconv.Itoa(screen.Width),
		"--screenEmulation.height=" + strconv.Itoa(screen.Height),
		"--screenEmulation.deviceScaleFactor=" + strconv.FormatFloat(screen.DeviceScaleFactor, 'f', -1, 64),
		"--screenEmulation.mobile=" + strconv.FormatBool(screen.Mobile),
		"--quiet",
	}
	if a.cfg.FormFactor == "desktop" {
		args = append(args, "--preset=desktop")
	}
	return args
}

// ScoresFromReport converts graded categories to 0-100 scores, skipping ungraded ones.
func ScoresFromReport(report *artifact.LighthouseReport) Scores {
	scores := Scores{}
	for pair := report.Categories.Oldest(); pair != nil; pair = pair.Next() {
		c, err := ParseCategory(pair.Key)
		if err != nil || pair.Value.Score == nil {
			continue
		}
		scores[c] = ScoreFromFraction(*pair.Value.Score)
	}
	return scores
}
