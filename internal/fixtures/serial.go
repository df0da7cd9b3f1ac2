// internal/fixtures/serial.go
package fixtures

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

// SerialGroup runs tests that share the browser's remote-debugging port one after another.
// The group owns the port lease and the browser for its whole lifetime.
type SerialGroup struct {
	t       *testing.T
	cfg     *config.Config
	opts    []Option
	lease   *audit.PortLease
	manager *browser.Manager
	logger  *zap.Logger
}

// Serial acquires the configured debugging port and launches one browser listening on it.
// Subtests started with Run execute in declaration order and must not call t.Parallel.
func Serial(t *testing.T, opts ...Option) *SerialGroup {
	t.Helper()
	RequireBrowser(t)

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cfg := LoadConfig(t, o.configFile, o.configure...)
	logger := zaptest.NewLogger(t).With(zap.String("group", t.Name()))
	ctx := rootContext(t)

	port := cfg.Browser().DebuggingPort
	lease, err := audit.AcquirePort(ctx, port)
	if err != nil {
		t.Fatalf("failed to lease debugging port %d: %v", port, err)
	}
	t.Cleanup(lease.Release)

	browserOpts := append([]browser.Option{browser.WithUserDataDir(t.TempDir()), browser.WithDebuggingPort(port)}, o.browserOpts...)
	manager := launch(t, ctx, cfg, logger, browserOpts...)
	logger.Info("Serial group holds debugging port.", zap.Int("port", port))

	return &SerialGroup{
		t:       t,
		cfg:     cfg,
		opts:    append(append([]Option(nil), opts...), WithConfig(func(c *config.Config) { *c = *cfg }), withManager(manager)),
		lease:   lease,
		manager: manager,
		logger:  logger,
	}
}

// Lease returns the group's port lease, for the performance auditor.
func (g *SerialGroup) Lease() *audit.PortLease { return g.lease }

// Config returns the configuration shared by the group.
func (g *SerialGroup) Config() *config.Config { return g.cfg }

// Run executes fn as a subtest with its own session on the shared browser.
func (g *SerialGroup) Run(name string, fn func(t *testing.T, h *Harness)) bool {
	return g.t.Run(name, func(t *testing.T) {
		fn(t, New(t, g.opts...))
	})
}
