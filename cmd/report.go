package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scalpel-e2e/internal/config"
	"github.com/xkilldash9x/scalpel-e2e/internal/observability"
	"github.com/xkilldash9x/scalpel-e2e/internal/reporting"
)

type reportOptions struct {
	markdown  bool
	sarifPath string
	pages     []string
}

func (o reportOptions) aggregatorOptions(cfg config.Interface) []reporting.AggregatorOption {
	opts := []reporting.AggregatorOption{reporting.WithMarkdown(o.markdown || cfg.Reports().Markdown)}
	if len(o.pages) > 0 {
		opts = append(opts, reporting.WithPages(o.pages...))
	}
	return opts
}

// newReportCmd creates the `report` command group. Each subcommand reads whatever
// per-page artifacts exist and always writes a consolidated document.
func newReportCmd() *cobra.Command {
	var opts reportOptions

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Consolidate per-page audit artifacts into a single HTML report",
	}
	reportCmd.PersistentFlags().BoolVar(&opts.markdown, "markdown", false, "Also write consolidated-report.md next to the HTML report.")
	reportCmd.PersistentFlags().StringSliceVar(&opts.pages, "pages", nil, "Page identifiers to include (default from reports.pages).")

	accessibilityCmd := &cobra.Command{
		Use:   "accessibility",
		Short: "Consolidate axe-core reports from the accessibility directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runAccessibilityReport(cmd.Context(), cfg, observability.GetLogger(), cmd.OutOrStdout(), opts)
		},
	}
	accessibilityCmd.Flags().StringVar(&opts.sarifPath, "sarif", "", "Also write the violations as SARIF to this path ('stdout' for standard output).")

	performanceCmd := &cobra.Command{
		Use:   "performance",
		Short: "Consolidate Lighthouse JSON reports from the performance directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runPerformanceReport(cmd.Context(), cfg, observability.GetLogger(), cmd.OutOrStdout(), opts)
		},
	}

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Generate both consolidated reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runAllReports(cmd.Context(), cfg, observability.GetLogger(), cmd.OutOrStdout(), opts)
		},
	}

	reportCmd.AddCommand(accessibilityCmd, performanceCmd, allCmd)
	return reportCmd
}

func runAccessibilityReport(ctx context.Context, cfg config.Interface, logger *zap.Logger, out io.Writer, opts reportOptions) error {
	agg := reporting.NewAccessibilityAggregator(cfg, logger, opts.aggregatorOptions(cfg)...)
	path, err := agg.Generate(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate accessibility report: %w", err)
	}
	fmt.Fprintf(out, "Accessibility report: %s\n", path)

	if opts.sarifPath == "" {
		return nil
	}
	report, err := agg.Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate accessibility results: %w", err)
	}
	r, err := reporting.New("sarif", opts.sarifPath, Version)
	if err != nil {
		return err
	}
	if err := reporting.WriteAll(r, report); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	logger.Info("SARIF report written.", zap.String("path", opts.sarifPath))
	return nil
}

func runPerformanceReport(ctx context.Context, cfg config.Interface, logger *zap.Logger, out io.Writer, opts reportOptions) error {
	path, err := reporting.NewPerformanceAggregator(cfg, logger, opts.aggregatorOptions(cfg)...).Generate(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate performance report: %w", err)
	}
	fmt.Fprintf(out, "Performance report: %s\n", path)
	return nil
}

// runAllReports generates both documents concurrently. They share no files.
func runAllReports(ctx context.Context, cfg config.Interface, logger *zap.Logger, out io.Writer, opts reportOptions) error {
	var accessibilityOut, performanceOut bytes.Buffer
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runAccessibilityReport(gctx, cfg, logger, &accessibilityOut, opts) })
	g.Go(func() error { return runPerformanceReport(gctx, cfg, logger, &performanceOut, opts) })
	err := g.Wait()
	io.WriteString(out, accessibilityOut.String())
	io.WriteString(out, performanceOut.String())
	return err
}
