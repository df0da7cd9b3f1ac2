// internal/pages/welcome.go
package pages

import (
	"context"
	"regexp"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
)

var (
	welcomeURL      = regexp.MustCompile(`.*welcome`)
	usernameDisplay = browser.ByCSS("#username")
)

// Welcome is the signed-in landing page.
type Welcome struct{ frame }

func NewWelcome(drv browser.Driver) Welcome { return Welcome{frame{drv}} }

func (Welcome) Name() string                    { return "welcomePage" }
func (Welcome) Path() string                    { return "/welcome" }
func (Welcome) ExpectedURL() *regexp.Regexp     { return welcomeURL }
func (w Welcome) Heading() browser.Element      { return w.element(browser.Locator{}) }
func (w Welcome) UserDropdown() browser.Element { return w.element(userDropdown) }
func (w Welcome) Username() browser.Element     { return w.element(usernameDisplay) }

// NavigateTo loads the welcome page.
func (w Welcome) NavigateTo(ctx context.Context) (Welcome, error) { return Goto(ctx, w) }

// OpenUserDropdown expands the user menu.
func (w Welcome) OpenUserDropdown(ctx context.Context) (Welcome, error) {
	return w, w.UserDropdown().Click(ctx)
}
