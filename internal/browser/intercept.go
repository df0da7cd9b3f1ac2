// internal/browser/intercept.go
package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

type route struct {
	pattern string
	match   *regexp.Regexp
	body    []byte
}

// MockJSON installs a route answering requests matching pattern with payload. Routes
// stay active for the life of the session; later routes win over earlier ones.
func (s *Session) MockJSON(ctx context.Context, pattern string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mock payload for %q: %w", pattern, err)
	}

	s.routesMu.Lock()
	s.routes = append(s.routes, route{pattern: pattern, match: globToRegexp(pattern), body: body})
	patterns := make([]*fetch.RequestPattern, 0, len(s.routes))
	for _, r := range s.routes {
		patterns = append(patterns, &fetch.RequestPattern{URLPattern: r.pattern, RequestStage: fetch.RequestStageRequest})
	}
	s.routesMu.Unlock()

	s.listenOnce.Do(func() {
		chromedp.ListenTarget(s.ctx, s.onTargetEvent)
	})

	return s.run(ctx, s.cfg.ActionTimeout, "route", pattern, fetch.Enable().WithPatterns(patterns))
}

func (s *Session) onTargetEvent(ev interface{}) {
	paused, ok := ev.(*fetch.EventRequestPaused)
	if !ok {
		return
	}
	// Event handlers must not block the CDP reader; answer from a goroutine.
	go s.answer(paused)
}

func (s *Session) answer(ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(Detach(s.ctx), c.Target)

	body, matched := s.lookup(ev.Request.URL)
	var err error
	if matched {
		err = fetch.FulfillRequest(ev.RequestID, 200).
			WithResponseHeaders([]*fetch.HeaderEntry{
				{Name: "Content-Type", Value: "application/json"},
				{Name: "Access-Control-Allow-Origin", Value: "*"},
			}).
			WithBody(base64.StdEncoding.EncodeToString(body)).
			Do(execCtx)
	} else {
		err = fetch.ContinueRequest(ev.RequestID).Do(execCtx)
	}
	if err != nil && !s.isClosed() {
		s.logger.Debug("Failed to answer intercepted request.", zap.String("url", ev.Request.URL), zap.Error(err))
	}
}

func (s *Session) lookup(rawURL string) ([]byte, bool) {
	s.routesMu.RLock()
	defer s.routesMu.RUnlock()
	for i := len(s.routes) - 1; i >= 0; i-- {
		if s.routes[i].match.MatchString(rawURL) {
			return s.routes[i].body, true
		}
	}
	return nil, false
}

// globToRegexp converts a DevTools URL pattern ('*' any run, '?' one char, '\' escapes)
// to an anchored regular expression.
func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*':
			b.WriteString(".*")
		case r == '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
