// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// chromeCandidates are the executable names FindChrome searches for, in order.
var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// FindChrome returns the first Chrome-compatible executable on PATH.
func FindChrome() (string, bool) {
	for _, name := range chromeCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// Option customizes a Manager.
type Option func(*Manager)

// WithDebuggingPort exposes the browser's DevTools endpoint on a fixed port so an
// external auditor can attach to it.
func WithDebuggingPort(port int) Option {
	return func(m *Manager) { m.debuggingPort = port }
}

// WithUserDataDir isolates the browser profile, required when several browsers run at once.
func WithUserDataDir(dir string) Option {
	return func(m *Manager) { m.userDataDir = dir }
}

// WithExecPath pins the browser binary instead of letting chromedp search for one.
func WithExecPath(path string) Option {
	return func(m *Manager) { m.execPath = path }
}

// Manager owns one browser process and hands out isolated tabs as Sessions.
type Manager struct {
	cfg    config.Interface
	logger *zap.Logger

	debuggingPort int
	userDataDir   string
	execPath      string

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
	closed   bool
}

// NewManager prepares the allocator. The browser itself is launched lazily by the first session.
func NewManager(ctx context.Context, cfg config.Interface, logger *zap.Logger, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("browser manager requires a configuration")
	}
	m := &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}

	allocOpts := ExecAllocatorOptions(cfg.Browser(), m.debuggingPort)
	if m.userDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(m.userDataDir))
	}
	if m.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(m.execPath))
	}
	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)

	m.logger.Debug("Browser manager created (launch deferred).",
		zap.Bool("headless", cfg.Browser().Headless),
		zap.Int("debugging_port", m.debuggingPort))
	return m, nil
}

// DebuggingPort returns the fixed DevTools port, or 0 when the browser picks its own.
func (m *Manager) DebuggingPort() int { return m.debuggingPort }

// NewSession opens a new tab. The first call launches the browser.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errors.New("browser manager is shut down")
	}
	m.wg.Add(1)
	m.mu.Unlock()

	s, err := newSession(ctx, m.allocCtx, m.cfg, m.logger)
	if err != nil {
		m.wg.Done()
		return nil, fmt.Errorf("failed to create browser session: %w", err)
	}

	s.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", s.ID()))
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Debug("New session created.", zap.String("session_id", s.ID()))
	return s, nil
}

// Shutdown closes every open session and stops the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Error closing session during shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	waitDone := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(waitDone)
	}()

	var shutdownErr error
	select {
	case <-waitDone:
	case <-ctx.Done():
		shutdownErr = fmt.Errorf("timed out waiting for sessions to close: %w", ctx.Err())
	}

	// chromedp.Cancel blocks until the process has exited.
	cancelDone := make(chan error, 1)
	go func() { cancelDone <- chromedp.Cancel(m.allocCtx) }()
	select {
	case err := <-cancelDone:
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, chromedp.ErrInvalidContext) {
			m.logger.Warn("Error stopping browser allocator.", zap.Error(err))
		}
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Browser allocator shutdown timed out; forcing.", zap.Duration("grace", shutdownGracePeriod))
	}
	m.allocCancel()

	m.logger.Debug("Browser manager shut down.")
	return shutdownErr
}

// ExecAllocatorOptions translates browser configuration into chromedp launch flags.
// A non-zero debuggingPort pins the DevTools endpoint.
func ExecAllocatorOptions(cfg config.BrowserConfig, debuggingPort int) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("enable-automation", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.IgnoreCertErrors)
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height))
	}
	if debuggingPort > 0 {
		opts = append(opts, chromedp.Flag("remote-debugging-port", strconv.Itoa(debuggingPort)))
	}

	for _, arg := range cfg.Args {
		// Accept both "--flag" and "--flag=value".
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}
