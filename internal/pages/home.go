// internal/pages/home.go
package pages

import (
	"context"
	"regexp"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
)

var (
	homeURL      = regexp.MustCompile(`.*/`)
	userDropdown = browser.ByTestID("btn-dropdown")
	loginLink    = browser.ByRole("link", "Login")
	registerLink = browser.ByRole("link", "Register")
)

// Home is the landing page.
type Home struct{ frame }

func NewHome(drv browser.Driver) Home { return Home{frame{drv}} }

func (Home) Name() string                    { return "homePage" }
func (Home) Path() string                    { return "/" }
func (Home) ExpectedURL() *regexp.Regexp     { return homeURL }
func (h Home) Heading() browser.Element      { return h.element(browser.Locator{}) }
func (h Home) UserDropdown() browser.Element { return h.element(userDropdown) }
func (h Home) LoginLink() browser.Element    { return h.element(loginLink) }
func (h Home) RegisterLink() browser.Element { return h.element(registerLink) }

// NavigateTo loads the home page.
func (h Home) NavigateTo(ctx context.Context) (Home, error) { return Goto(ctx, h) }

// OpenUserDropdown expands the user menu.
func (h Home) OpenUserDropdown(ctx context.Context) (Home, error) {
	return h, h.UserDropdown().Click(ctx)
}

// ClickLogin follows the menu's login link.
func (h Home) ClickLogin(ctx context.Context) (Login, error) {
	return NewLogin(h.drv), h.LoginLink().Click(ctx)
}

// ClickRegister follows the menu's register link.
func (h Home) ClickRegister(ctx context.Context) (Register, error) {
	return NewRegister(h.drv), h.RegisterLink().Click(ctx)
}
