// internal/browser/driver.go
package browser

import (
	"context"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// KeyEscape is the key name Press accepts for the Escape key.
const KeyEscape = kb.Escape

// Driver is the set of browser operations page objects are allowed to use. Session is
// the chromedp implementation; page-model tests supply a recording fake.
type Driver interface {
	// Navigate loads path relative to the application base URL and waits for the load event.
	Navigate(ctx context.Context, path string) error
	Click(ctx context.Context, loc Locator) error
	// Fill replaces the current value of an input.
	Fill(ctx context.Context, loc Locator, value string) error
	// Check ensures a checkbox is checked, clicking it only when it is not.
	Check(ctx context.Context, loc Locator) error
	// Press dispatches a key to the focused element.
	Press(ctx context.Context, key string) error
	Text(ctx context.Context, loc Locator) (string, error)
	// Visible reports the element's current visibility without waiting.
	Visible(ctx context.Context, loc Locator) (bool, error)
	URL(ctx context.Context) (string, error)
	// Evaluate runs a script, awaiting a returned promise, and decodes its JSON result into out.
	Evaluate(ctx context.Context, expression string, out any) error
}

// Box is an element's bounding box in CSS pixels relative to the document.
type Box struct {
	X, Y, Width, Height float64
}

// Capturer is implemented by drivers that can produce screenshots.
type Capturer interface {
	// Screenshot captures the viewport, or the whole scrollable page when fullPage is set.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	// ElementScreenshot captures the first element matching loc.
	ElementScreenshot(ctx context.Context, loc Locator) ([]byte, error)
	// ElementBoxes returns the boxes of every element matching loc.
	ElementBoxes(ctx context.Context, loc Locator) ([]Box, error)
}

// Router is implemented by drivers that can answer requests without hitting the network.
type Router interface {
	// MockJSON answers every request whose URL matches the glob pattern with payload encoded as JSON.
	MockJSON(ctx context.Context, pattern string, payload any) error
}

// ActionExecutor runs raw chromedp actions within the session's CDP context.
type ActionExecutor interface {
	RunActions(ctx context.Context, actions ...chromedp.Action) error
}
