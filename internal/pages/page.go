// internal/pages/page.go

// Package pages models the application's screens as immutable page states. Each state
// owns its locators and exposes transitions that return the next state after issuing a
// gesture. Transitions never check that navigation happened; callers do that with
// Verify or browser.ExpectURL against the destination's ExpectedURL.
package pages

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
)

// Page is the capability set shared by every page state.
type Page interface {
	// Name is the fixture name the page is registered under, e.g. "loginPage".
	Name() string
	// Path is the page's location relative to the application base URL.
	Path() string
	ExpectedURL() *regexp.Regexp
	// Alert is the status region used for both success and error messages.
	Alert() browser.Element
	// Heading is the page title element; it is unbound for pages without one.
	Heading() browser.Element
	Driver() browser.Driver
}

// alertLocator is shared by every screen.
var alertLocator = browser.ByRole("alert", "")

// frame holds what every page state carries.
type frame struct {
	drv browser.Driver
}

func (f frame) Driver() browser.Driver { return f.drv }

func (f frame) Alert() browser.Element { return browser.NewElement(f.drv, alertLocator) }

func (f frame) element(loc browser.Locator) browser.Element { return browser.NewElement(f.drv, loc) }

// Goto navigates to p's own path and returns p for chaining.
func Goto[P Page](ctx context.Context, p P) (P, error) {
	if err := p.Driver().Navigate(ctx, p.Path()); err != nil {
		return p, fmt.Errorf("navigate to %s: %w", p.Name(), err)
	}
	return p, nil
}

// Verify asserts that the session has arrived on p: the URL matches p's pattern and,
// when p has a heading, the heading is visible.
func Verify(ctx context.Context, p Page, timeout time.Duration) error {
	if err := browser.ExpectURL(ctx, p.Driver(), p.ExpectedURL(), timeout); err != nil {
		return fmt.Errorf("verify %s: %w", p.Name(), err)
	}
	if p.Heading().Locator().IsZero() {
		return nil
	}
	if err := p.Heading().WaitVisible(ctx, timeout); err != nil {
		return fmt.Errorf("verify %s: %w", p.Name(), err)
	}
	return nil
}
