// internal/fixtures/harness.go
package fixtures

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
	"github.com/xkilldash9x/scalpel-e2e/internal/factory"
	"github.com/xkilldash9x/scalpel-e2e/internal/visual"
)

const (
	defaultTestTimeout  = 5 * time.Minute
	cleanupGracePeriod  = 2 * time.Second
	minExecutionTime    = 5 * time.Second
	shutdownGracePeriod = 15 * time.Second
)

// Harness is everything one browser test needs. The session and browser are released
// through t.Cleanup when the test ends.
type Harness struct {
	T       testing.TB
	Ctx     context.Context
	Config  *config.Config
	Logger  *zap.Logger
	Manager *browser.Manager
	Session *browser.Session
	Pages   *Pages
	Users   *factory.Factory

	Attachments *Attachments
}

type options struct {
	configFile  string
	configure   []func(*config.Config)
	manager     *browser.Manager
	browserOpts []browser.Option
	factoryOpts []factory.Option
}

// Option customizes the harness.
type Option func(*options)

// WithConfigFile loads the named file instead of searching for config.yaml.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithConfig mutates the loaded configuration before anything is launched.
func WithConfig(fn func(*config.Config)) Option {
	return func(o *options) { o.configure = append(o.configure, fn) }
}

// WithBaseURL points the session at another application instance.
func WithBaseURL(u string) Option {
	return WithConfig(func(c *config.Config) { c.SetAppBaseURL(u) })
}

// WithBrowserOptions passes launch options to a harness-owned browser manager.
func WithBrowserOptions(opts ...browser.Option) Option {
	return func(o *options) { o.browserOpts = append(o.browserOpts, opts...) }
}

// WithUserFactory seeds the harness's user factory.
func WithUserFactory(opts ...factory.Option) Option {
	return func(o *options) { o.factoryOpts = append(o.factoryOpts, opts...) }
}

func withManager(m *browser.Manager) Option {
	return func(o *options) { o.manager = m }
}

// New launches a browser for t (unless a serial group supplies one) and opens a fresh session.
// Browser tests are skipped in -short mode and when no Chrome binary is installed.
func New(t testing.TB, opts ...Option) *Harness {
	t.Helper()
	RequireBrowser(t)

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cfg := LoadConfig(t, o.configFile, o.configure...)
	logger := zaptest.NewLogger(t).With(zap.String("test", t.Name()))
	ctx := rootContext(t)

	manager := o.manager
	if manager == nil {
		manager = launch(t, ctx, cfg, logger, append([]browser.Option{browser.WithUserDataDir(t.TempDir())}, o.browserOpts...)...)
	}

	session, err := manager.NewSession(ctx)
	if err != nil {
		t.Fatalf("failed to open browser session: %v", err)
	}
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			t.Logf("Warning: error closing session %s: %v", session.ID(), err)
		}
	})

	users, err := factory.New(o.factoryOpts...)
	if err != nil {
		t.Fatalf("failed to create user factory: %v", err)
	}

	return &Harness{
		T:           t,
		Ctx:         ctx,
		Config:      cfg,
		Logger:      logger,
		Manager:     manager,
		Session:     session,
		Pages:       NewPages(session),
		Users:       users,
		Attachments: NewAttachments(t),
	}
}

// AccessibilityScanner returns a scanner that attaches its reports to this test.
func (h *Harness) AccessibilityScanner(opts ...audit.ScannerOption) *audit.AccessibilityScanner {
	return audit.NewAccessibilityScanner(h.Config, h.Logger, append([]audit.ScannerOption{audit.WithAttacher(h.Attachments)}, opts...)...)
}

// Snapshotter returns the visual comparison helper for this test's configuration.
func (h *Harness) Snapshotter() *visual.Snapshotter {
	return visual.NewSnapshotter(h.Config, h.Logger)
}

// NewUser generates a fresh user record or fails the test.
func (h *Harness) NewUser() factory.UserRecord {
	h.T.Helper()
	u, err := h.Users.NewUser()
	if err != nil {
		h.T.Fatalf("failed to generate user: %v", err)
	}
	return u
}

// RequireBrowser skips t when browser tests cannot run here.
func RequireBrowser(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in -short mode")
	}
	if _, ok := browser.FindChrome(); !ok {
		t.Skip("no Chrome binary found on PATH")
	}
}

// LoadConfig loads the harness configuration from the working directory and the module root.
func LoadConfig(t testing.TB, configFile string, configure ...func(*config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.Load(configFile, searchDirs()...)
	if err != nil {
		t.Fatalf("failed to load configuration: %v", err)
	}
	for _, fn := range configure {
		fn(cfg)
	}
	return cfg
}

var searchDirs = sync.OnceValue(func() []string {
	wd, err := os.Getwd()
	if err != nil {
		return []string{"."}
	}
	dirs := []string{wd}
	if root, ok := findModuleRoot(wd); ok && root != wd {
		dirs = append(dirs, root)
	}
	return dirs
})

// findModuleRoot walks up from dir to the nearest directory holding a go.mod.
func findModuleRoot(dir string) (string, bool) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// rootContext is cancelled shortly before the test deadline so cleanups still have time to run.
func rootContext(t testing.TB) context.Context {
	deadline := time.Now().Add(defaultTestTimeout)
	if tt, ok := t.(interface{ Deadline() (time.Time, bool) }); ok {
		if d, ok := tt.Deadline(); ok {
			deadline = d
		}
	}
	deadline = deadline.Add(-cleanupGracePeriod)
	if time.Until(deadline) < minExecutionTime {
		t.Fatalf("Insufficient test timeout: less than %v left for execution. Increase 'go test -timeout'.", minExecutionTime)
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	t.Cleanup(cancel)
	return ctx
}

func launch(t testing.TB, ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...browser.Option) *browser.Manager {
	t.Helper()
	manager, err := browser.NewManager(ctx, cfg, logger, opts...)
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			t.Logf("Warning: error during browser manager shutdown: %v", err)
		}
	})
	return manager
}
