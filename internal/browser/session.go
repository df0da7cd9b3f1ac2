// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

// Session is one browser tab bound to the application under test. It implements
// Driver, Capturer, Router and ActionExecutor.
type Session struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	cfg     config.BrowserConfig
	baseURL *url.URL

	routesMu   sync.RWMutex
	routes     []route
	listenOnce sync.Once

	onClose   func()
	closeOnce sync.Once
	closed    chan struct{}
}

var (
	_ Driver         = (*Session)(nil)
	_ Capturer       = (*Session)(nil)
	_ Router         = (*Session)(nil)
	_ ActionExecutor = (*Session)(nil)
)

func newSession(ctx, allocCtx context.Context, cfg config.Interface, logger *zap.Logger) (*Session, error) {
	base, err := url.Parse(cfg.App().BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.App().BaseURL, err)
	}

	id := uuid.NewString()
	log := logger.With(zap.String("session_id", id))
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Debugf),
	)

	s := &Session{
		id:      id,
		ctx:     tabCtx,
		cancel:  cancel,
		logger:  log,
		cfg:     cfg.Browser(),
		baseURL: base,
		closed:  make(chan struct{}),
	}

	// 1. Start the target. The first Run must use the tab context itself: chromedp ties the
	// browser's lifetime to it, so it cannot carry the caller's deadline.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to start browser target: %w", err)
		}
	case <-ctx.Done():
		cancel()
		return nil, fmt.Errorf("browser launch aborted: %w", ctx.Err())
	}

	// 2. Apply per-tab emulation.
	setup := []chromedp.Action{network.Enable()}
	if s.cfg.Viewport.Width > 0 && s.cfg.Viewport.Height > 0 {
		setup = append(setup, chromedp.EmulateViewport(int64(s.cfg.Viewport.Width), int64(s.cfg.Viewport.Height)))
	}
	if s.cfg.DisableCache {
		setup = append(setup, network.SetCacheDisabled(true))
	}
	if err := s.RunActions(ctx, setup...); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to configure browser target: %w", err)
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Context returns the tab's chromedp context.
func (s *Session) Context() context.Context { return s.ctx }

// BaseURL returns the application base URL paths are resolved against.
func (s *Session) BaseURL() *url.URL { return s.baseURL }

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.closed)
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				closeErr = fmt.Errorf("failed to close tab: %w", err)
			}
		case <-ctx.Done():
			s.cancel()
			closeErr = fmt.Errorf("timed out closing tab: %w", ctx.Err())
		}
		if s.onClose != nil {
			s.onClose()
		}
	})
	return closeErr
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// RunActions runs chromedp actions bounded by ctx only.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// run executes actions under the given bound and maps failures onto the error taxonomy.
func (s *Session) run(ctx context.Context, timeout time.Duration, op, target string, actions ...chromedp.Action) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	combined, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	opCtx, cancelTimeout := context.WithTimeout(combined, timeout)
	defer cancelTimeout()

	err := chromedp.Run(opCtx, actions...)
	if err != nil {
		s.logger.Debug("Browser action failed.", zap.String("op", op), zap.String("target", target), zap.Error(err))
	}
	return classify(op, target, timeout, opCtx, ctx, err)
}

func (s *Session) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return s.baseURL.ResolveReference(ref).String(), nil
}

// Navigate loads path relative to the base URL.
func (s *Session) Navigate(ctx context.Context, path string) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	s.logger.Debug("Navigating.", zap.String("url", target))
	return s.run(ctx, s.cfg.NavigationTimeout, "navigate to", target, chromedp.Navigate(target))
}

// Click waits for the element to be visible, then clicks it.
func (s *Session) Click(ctx context.Context, loc Locator) error {
	return s.run(ctx, s.cfg.ActionTimeout, "click", loc.String(),
		chromedp.Click(loc.Selector, append(loc.queryOptions(), chromedp.NodeVisible)...))
}

// Fill focuses the input, clears it and inserts value as a single text input event.
func (s *Session) Fill(ctx context.Context, loc Locator, value string) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	return s.run(ctx, s.cfg.ActionTimeout, "fill", loc.String(),
		chromedp.Focus(loc.Selector, opts...),
		chromedp.SetValue(loc.Selector, "", opts...),
		input.InsertText(value),
		s.dispatch(loc, "change"),
	)
}

// Check clicks a checkbox only if it is not already checked.
func (s *Session) Check(ctx context.Context, loc Locator) error {
	opts := append(loc.queryOptions(), chromedp.NodeVisible)
	var checked bool
	err := s.run(ctx, s.cfg.ActionTimeout, "check", loc.String(),
		chromedp.JavascriptAttribute(loc.Selector, "checked", &checked, opts...))
	if err != nil || checked {
		return err
	}
	return s.Click(ctx, loc)
}

// Press sends key to whatever element has focus.
func (s *Session) Press(ctx context.Context, key string) error {
	return s.run(ctx, s.cfg.ActionTimeout, "press", fmt.Sprintf("key %q", key), chromedp.KeyEvent(key))
}

// Text returns the element's rendered text once it is visible.
func (s *Session) Text(ctx context.Context, loc Locator) (string, error) {
	var text string
	err := s.run(ctx, s.cfg.ActionTimeout, "read text of", loc.String(),
		chromedp.Text(loc.Selector, &text, append(loc.queryOptions(), chromedp.NodeVisible)...))
	return text, err
}

// Visible reports whether the element currently exists with a non-empty box and is not hidden.
func (s *Session) Visible(ctx context.Context, loc Locator) (bool, error) {
	script := fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.visibility === 'hidden' || style.display === 'none') return false;
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
})()`, loc.resolveJS())
	var visible bool
	err := s.run(ctx, s.cfg.ActionTimeout, "check visibility of", loc.String(), chromedp.Evaluate(script, &visible))
	return visible, err
}

// URL returns the tab's current location.
func (s *Session) URL(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, s.cfg.ActionTimeout, "read", "location", chromedp.Location(&loc))
	return loc, err
}

// Evaluate runs expression, awaiting promises, bounded by the navigation timeout. Scripts
// such as rule engines take longer than a single interaction. A nil out discards the result.
func (s *Session) Evaluate(ctx context.Context, expression string, out any) error {
	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	if out == nil {
		return s.run(ctx, s.cfg.NavigationTimeout, "evaluate", "script", chromedp.Evaluate(expression, nil, awaitPromise))
	}

	var raw []byte
	if err := s.run(ctx, s.cfg.NavigationTimeout, "evaluate", "script", chromedp.Evaluate(expression, &raw, awaitPromise)); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

// dispatch fires a bubbling DOM event at the element.
func (s *Session) dispatch(loc Locator, event string) chromedp.Action {
	name, _ := json.MarshalToString(event)
	script := fmt.Sprintf(`(() => { const el = %s; if (el) el.dispatchEvent(new Event(%s, {bubbles: true})); return true; })()`,
		loc.resolveJS(), name)
	var ignored bool
	return chromedp.Evaluate(script, &ignored)
}
