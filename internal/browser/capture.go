// internal/browser/capture.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Screenshot captures a PNG of the viewport or, with fullPage, of the entire document.
func (s *Session) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		// Quality 100 selects lossless PNG.
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := s.run(ctx, s.cfg.NavigationTimeout, "screenshot", "page", action); err != nil {
		return nil, err
	}
	return buf, nil
}

// ElementScreenshot captures the first element matching loc, scrolled into view.
func (s *Session) ElementScreenshot(ctx context.Context, loc Locator) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, s.cfg.NavigationTimeout, "screenshot", loc.String(),
		chromedp.Screenshot(loc.Selector, &buf, append(loc.queryOptions(), chromedp.NodeVisible)...))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// ElementBoxes returns document-relative boxes for every element matching loc.
func (s *Session) ElementBoxes(ctx context.Context, loc Locator) ([]Box, error) {
	script := fmt.Sprintf(`%s.map(el => {
	const r = el.getBoundingClientRect();
	return {X: r.left + window.scrollX, Y: r.top + window.scrollY, Width: r.width, Height: r.height};
})`, loc.resolveAllJS())

	var boxes []Box
	if err := s.Evaluate(ctx, script, &boxes); err != nil {
		return nil, err
	}
	return boxes, nil
}
