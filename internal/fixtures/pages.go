// internal/fixtures/pages.go

// Package fixtures hands each test its own browser session, page values, users and audit
// collaborators, and groups tests that must share the audited debugging port.
package fixtures

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/pages"
)

// ErrUnknownPage is returned by Pages.Page for names outside Names().
var ErrUnknownPage = errors.New("unknown page")

const (
	HomePage     = "homePage"
	LoginPage    = "loginPage"
	RegisterPage = "registerPage"
	WelcomePage  = "welcomePage"
)

// Names lists every page the provider can build.
func Names() []string {
	return []string{HomePage, LoginPage, RegisterPage, WelcomePage}
}

// Pages lazily builds at most one value per page for a single test. Building a page has no side
// effects; navigation is always explicit in the test body.
type Pages struct {
	drv browser.Driver

	mu    sync.Mutex
	built []string

	home     func() pages.Home
	login    func() pages.Login
	register func() pages.Register
	welcome  func() pages.Welcome
}

// NewPages binds a provider to one test's driver.
func NewPages(drv browser.Driver) *Pages {
	p := &Pages{drv: drv}
	p.home = lazy(p, HomePage, pages.NewHome)
	p.login = lazy(p, LoginPage, pages.NewLogin)
	p.register = lazy(p, RegisterPage, pages.NewRegister)
	p.welcome = lazy(p, WelcomePage, pages.NewWelcome)
	return p
}

func lazy[P pages.Page](p *Pages, name string, build func(browser.Driver) P) func() P {
	return sync.OnceValue(func() P {
		p.mu.Lock()
		p.built = append(p.built, name)
		p.mu.Unlock()
		return build(p.drv)
	})
}

func (p *Pages) Home() pages.Home         { return p.home() }
func (p *Pages) Login() pages.Login       { return p.login() }
func (p *Pages) Register() pages.Register { return p.register() }
func (p *Pages) Welcome() pages.Welcome   { return p.welcome() }

// Page looks a page up by fixture name.
func (p *Pages) Page(name string) (pages.Page, error) {
	switch name {
	case HomePage:
		return p.Home(), nil
	case LoginPage:
		return p.Login(), nil
	case RegisterPage:
		return p.Register(), nil
	case WelcomePage:
		return p.Welcome(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPage, name)
}

// Built returns the names constructed so far, in construction order.
func (p *Pages) Built() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.built...)
}
