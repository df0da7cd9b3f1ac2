// internal/browser/expect.go
package browser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PollInterval is how often expectations re-check the page.
var PollInterval = 100 * time.Millisecond

// poll calls check until it reports success, returns an error, or timeout elapses.
// It returns the last observed value and whether the condition was met.
func poll(ctx context.Context, timeout time.Duration, check func(ctx context.Context) (bool, string, error)) (string, bool, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	var last string
	for {
		ok, observed, err := check(ctx)
		if err != nil {
			return observed, false, err
		}
		last = observed
		if ok {
			return last, true, nil
		}
		if !time.Now().Before(deadline) {
			return last, false, nil
		}
		select {
		case <-ctx.Done():
			return last, false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ExpectURL waits until the driver's URL matches pattern. Navigation is validated here,
// by the caller, never inside a transition.
func ExpectURL(ctx context.Context, drv Driver, pattern *regexp.Regexp, timeout time.Duration) error {
	last, ok, err := poll(ctx, timeout, func(ctx context.Context) (bool, string, error) {
		u, err := drv.URL(ctx)
		if err != nil {
			return false, "", err
		}
		return pattern.MatchString(u), u, nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return &NavigationMismatchError{Want: pattern, Got: last}
	}
	return nil
}

// Element binds a Locator to a Driver.
type Element struct {
	drv Driver
	loc Locator
}

// NewElement returns an element handle. Nothing is resolved until a method is called.
func NewElement(drv Driver, loc Locator) Element {
	return Element{drv: drv, loc: loc}
}

func (e Element) Locator() Locator { return e.loc }

func (e Element) Click(ctx context.Context) error { return e.drv.Click(ctx, e.loc) }

func (e Element) Fill(ctx context.Context, value string) error { return e.drv.Fill(ctx, e.loc, value) }

func (e Element) Text(ctx context.Context) (string, error) { return e.drv.Text(ctx, e.loc) }

func (e Element) IsVisible(ctx context.Context) (bool, error) { return e.drv.Visible(ctx, e.loc) }

// WaitVisible waits for the element to become visible.
func (e Element) WaitVisible(ctx context.Context, timeout time.Duration) error {
	_, ok, err := poll(ctx, timeout, func(ctx context.Context) (bool, string, error) {
		v, err := e.drv.Visible(ctx, e.loc)
		if err != nil {
			return false, "", err
		}
		if v {
			return true, "visible", nil
		}
		return false, "hidden", nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return &ExpectationError{Target: e.loc.String(), Expected: "be visible", Actual: "hidden"}
	}
	return nil
}

// WaitForText waits until the element's text contains want.
func (e Element) WaitForText(ctx context.Context, want string, timeout time.Duration) error {
	last, ok, err := poll(ctx, timeout, func(ctx context.Context) (bool, string, error) {
		visible, err := e.drv.Visible(ctx, e.loc)
		if err != nil || !visible {
			return false, "", err
		}
		text, err := e.drv.Text(ctx, e.loc)
		if err != nil {
			return false, "", err
		}
		return strings.Contains(text, want), text, nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return &ExpectationError{Target: e.loc.String(), Expected: "contain text " + strconv.Quote(want), Actual: last}
	}
	return nil
}
