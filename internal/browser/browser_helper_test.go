// internal/browser/browser_helper_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

var (
	// globalProcessSemaphore limits concurrent browser processes across the package's tests.
	globalProcessSemaphore     *semaphore.Weighted
	globalProcessSemaphoreOnce sync.Once
)

const (
	maxTestConcurrency        = 2
	shutdownTimeout           = 15 * time.Second
	defaultBrowserTestTimeout = 120 * time.Second
	testCleanupGracePeriod    = 1 * time.Second
	semaphoreAcquireTimeout   = 10 * time.Second
	minTestExecutionTime      = 5 * time.Second
)

func getGlobalProcessSemaphore() *semaphore.Weighted {
	globalProcessSemaphoreOnce.Do(func() {
		globalProcessSemaphore = semaphore.NewWeighted(maxTestConcurrency)
	})
	return globalProcessSemaphore
}

// testFixture is the sandbox for a single browser integration test.
type testFixture struct {
	Config  *config.Config
	Manager *Manager
	Session *Session
	Logger  *zap.Logger
	RootCtx context.Context
}

type fixtureConfigurator func(*config.Config)

func createTestConfig(baseURL string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.AppCfg.BaseURL = baseURL
	cfg.BrowserCfg.Headless = true
	cfg.BrowserCfg.DisableCache = true
	cfg.BrowserCfg.ActionTimeout = 5 * time.Second
	cfg.BrowserCfg.NavigationTimeout = 30 * time.Second
	cfg.BrowserCfg.Viewport = config.ViewportConfig{Width: 800, Height: 600}
	return cfg
}

// newTestFixture launches an isolated browser pointed at server and opens one session.
// Cleanups run LIFO: session close, manager shutdown, semaphore release.
func newTestFixture(t *testing.T, server *httptest.Server, configurators ...fixtureConfigurator) *testFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("browser integration tests are skipped in -short mode")
	}
	if _, ok := FindChrome(); !ok {
		t.Skip("no Chrome binary found on PATH")
	}

	logger := zaptest.NewLogger(t).With(zap.String("test", t.Name()))

	testDeadline, ok := t.Deadline()
	if !ok {
		testDeadline = time.Now().Add(defaultBrowserTestTimeout)
	}
	rootDeadline := testDeadline.Add(-testCleanupGracePeriod)
	if time.Until(rootDeadline) < minTestExecutionTime {
		t.Fatalf("Insufficient test timeout: less than %v left for execution. Increase 'go test -timeout'.", minTestExecutionTime)
	}
	rootCtx, rootCancel := context.WithDeadline(context.Background(), rootDeadline)
	t.Cleanup(rootCancel)

	cfg := createTestConfig(server.URL)
	for _, configure := range configurators {
		configure(cfg)
	}

	// --- Semaphore Acquisition ---
	sem := getGlobalProcessSemaphore()
	acquireCtx, acquireCancel := context.WithTimeout(rootCtx, semaphoreAcquireTimeout)
	if err := sem.Acquire(acquireCtx, 1); err != nil {
		acquireCancel()
		t.Fatalf("Failed to acquire browser semaphore: %v", err)
	}
	acquireCancel()
	t.Cleanup(func() { sem.Release(1) })

	manager, err := NewManager(rootCtx, cfg, logger, WithUserDataDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			t.Logf("Warning: Error during browser manager shutdown: %v", err)
		}
	})

	session, err := manager.NewSession(rootCtx)
	require.NoError(t, err, "Failed to open browser session")

	return &testFixture{
		Config:  cfg,
		Manager: manager,
		Session: session,
		Logger:  logger,
		RootCtx: rootCtx,
	}
}

// createStaticTestServer serves pages keyed by path; unknown paths get a 404.
func createStaticTestServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}
