package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
	"github.com/xkilldash9x/scalpel-e2e/internal/observability"
	"github.com/xkilldash9x/scalpel-e2e/internal/reporting"
)

// errChecksFailed is returned when an audit ran to completion but did not meet its limits.
var errChecksFailed = errors.New("audit checks failed")

const shutdownTimeout = 15 * time.Second

type auditOptions struct {
	target    string
	junitPath string

	// accessibility
	maxViolations int
	maxCritical   int

	// performance
	label      string
	thresholds map[string]int
}

func newAuditCmd() *cobra.Command {
	var opts auditOptions

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit a single page of the running application",
	}
	auditCmd.PersistentFlags().StringVarP(&opts.target, "url", "u", "/", "Page to audit, absolute or relative to app.base_url.")
	auditCmd.PersistentFlags().StringVar(&opts.junitPath, "junit", "", "Write the check results as JUnit XML to this path.")

	accessibilityCmd := &cobra.Command{
		Use:   "accessibility",
		Short: "Run axe-core against the page and write accessibility-report-<page>.html",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runAccessibilityAudit(cmd.Context(), cfg, observability.Component("audit"), cmd.OutOrStdout(), opts)
		},
	}
	accessibilityCmd.Flags().IntVar(&opts.maxViolations, "max-violations", -1, "Maximum violating rules (default from audit.max_violations).")
	accessibilityCmd.Flags().IntVar(&opts.maxCritical, "max-critical", -1, "Maximum critical violating rules (default from audit.max_critical).")

	performanceCmd := &cobra.Command{
		Use:   "performance",
		Short: "Run Lighthouse against the page through the shared debugging port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runPerformanceAudit(cmd.Context(), cfg, observability.Component("audit"), cmd.OutOrStdout(), opts)
		},
	}
	performanceCmd.Flags().StringVarP(&opts.label, "label", "l", "", "Label for lighthouse-report-<label>.{html,json} (required).")
	_ = performanceCmd.MarkFlagRequired("label")
	performanceCmd.Flags().StringToIntVar(&opts.thresholds, "threshold", nil, "Minimum score per category, e.g. performance=90,seo=50 (overrides audit.thresholds).")

	auditCmd.AddCommand(accessibilityCmd, performanceCmd)
	return auditCmd
}

func runAccessibilityAudit(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer, opts auditOptions) error {
	dataDir, err := os.MkdirTemp("", "scalpel-e2e-profile-*")
	if err != nil {
		return fmt.Errorf("failed to create browser profile directory: %w", err)
	}
	defer os.RemoveAll(dataDir)

	manager, err := browser.NewManager(ctx, cfg, logger, browser.WithUserDataDir(dataDir))
	if err != nil {
		return err
	}
	defer shutdown(manager, logger)

	session, err := manager.NewSession(ctx)
	if err != nil {
		return err
	}
	if err := session.Navigate(ctx, opts.target); err != nil {
		return err
	}

	scanner := audit.NewAccessibilityScanner(cfg, logger)
	results, err := scanner.Analyze(ctx, session)
	if err != nil {
		return err
	}
	path, err := scanner.CreateReport(ctx, session, results)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Accessibility report: %s\n", path)

	return evaluateBudget(out, results.Summarize(), budgetFor(cfg, opts), opts.junitPath)
}

func budgetFor(cfg config.Interface, opts auditOptions) audit.AccessibilityBudget {
	budget := audit.BudgetFromConfig(cfg.Audit().MaxViolations, cfg.Audit().MaxCritical)
	if opts.maxViolations >= 0 {
		budget.MaxViolations = opts.maxViolations
	}
	if opts.maxCritical >= 0 {
		budget.MaxCritical = opts.maxCritical
	}
	return budget
}

func evaluateBudget(out io.Writer, result audit.AccessibilityResult, budget audit.AccessibilityBudget, junitPath string) error {
	checks := audit.CheckBudget(result, budget)
	failed := 0
	for _, c := range checks {
		fmt.Fprintf(out, "  %s %s\n", mark(c.Passed), c)
		if !c.Passed {
			failed++
		}
	}
	if err := writeJUnit(junitPath, reporting.BudgetSuite(result.PageID, checks)); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %s exceeded %d of %d accessibility budgets", errChecksFailed, result.PageID, failed, len(checks))
	}
	return nil
}

func runPerformanceAudit(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer, opts auditOptions) error {
	thresholds, err := thresholdsFor(cfg, opts.thresholds)
	if err != nil {
		return err
	}
	target, err := resolveTarget(cfg.App().BaseURL, opts.target)
	if err != nil {
		return err
	}

	port := cfg.Browser().DebuggingPort
	lease, err := audit.AcquirePort(ctx, port)
	if err != nil {
		return fmt.Errorf("failed to lease debugging port %d: %w", port, err)
	}
	defer lease.Release()

	dataDir, err := os.MkdirTemp("", "scalpel-e2e-profile-*")
	if err != nil {
		return fmt.Errorf("failed to create browser profile directory: %w", err)
	}
	defer os.RemoveAll(dataDir)

	manager, err := browser.NewManager(ctx, cfg, logger, browser.WithUserDataDir(dataDir), browser.WithDebuggingPort(port))
	if err != nil {
		return err
	}
	defer shutdown(manager, logger)

	// Lighthouse attaches to a running browser; the first session launches it.
	session, err := manager.NewSession(ctx)
	if err != nil {
		return err
	}
	if err := session.Navigate(ctx, target); err != nil {
		return err
	}

	result, err := audit.NewPerformanceAuditor(cfg, logger).Audit(ctx, lease, target, opts.label)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Lighthouse report: %s\n", result.HTMLPath)

	return evaluateThresholds(out, opts.label, result.Scores, thresholds, opts.junitPath)
}

// thresholdsFor overlays command-line thresholds on the configured ones.
func thresholdsFor(cfg config.Interface, overrides map[string]int) (audit.Thresholds, error) {
	thresholds, err := audit.ParseThresholds(cfg.Audit().Thresholds)
	if err != nil {
		return nil, fmt.Errorf("invalid audit.thresholds: %w", err)
	}
	extra, err := audit.ParseThresholds(overrides)
	if err != nil {
		return nil, fmt.Errorf("invalid --threshold: %w", err)
	}
	for c, v := range extra {
		thresholds[c] = v
	}
	return thresholds, nil
}

func evaluateThresholds(out io.Writer, label string, scores audit.Scores, thresholds audit.Thresholds, junitPath string) error {
	checks := audit.CheckThresholds(scores, thresholds)
	for _, c := range checks {
		fmt.Fprintf(out, "  %s %s\n", mark(c.Passed), c)
	}
	if err := writeJUnit(junitPath, reporting.ThresholdSuite(label, checks)); err != nil {
		return err
	}
	if failed := audit.Failures(checks); len(failed) > 0 {
		return fmt.Errorf("%w: %s missed %d of %d lighthouse thresholds", errChecksFailed, label, len(failed), len(checks))
	}
	return nil
}

func resolveTarget(baseURL, target string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid app.base_url: %w", err)
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid --url %q: %w", target, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func writeJUnit(path string, suites ...reporting.JUnitSuite) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create junit directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create junit file: %w", err)
	}
	if err := reporting.NewJUnitWriter().Write(f, suites...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func shutdown(m *browser.Manager, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		logger.Warn("Browser shutdown incomplete.", zap.Error(err))
	}
}

func mark(passed bool) string {
	if passed {
		return "✓"
	}
	return "✗"
}
