// internal/pages/login.go
package pages

import (
	"context"
	"fmt"
	"regexp"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/factory"
)

var (
	loginURL          = regexp.MustCompile(`.*login`)
	loginHeading      = browser.ByRole("heading", "Login")
	loginEmailInput   = browser.ByPlaceholder("Enter User Email")
	loginPassword     = browser.ByPlaceholder("Enter Password")
	keepSignedIn      = browser.ByLabelText("keep me sign in")
	loginSubmitButton = browser.ByRole("button", "LogIn")
	loginForm         = browser.ByCSS("form")
)

// Login is the sign-in form.
type Login struct{ frame }

func NewLogin(drv browser.Driver) Login { return Login{frame{drv}} }

func (Login) Name() string                     { return "loginPage" }
func (Login) Path() string                     { return "/login" }
func (Login) ExpectedURL() *regexp.Regexp      { return loginURL }
func (l Login) Heading() browser.Element       { return l.element(loginHeading) }
func (l Login) EmailInput() browser.Element    { return l.element(loginEmailInput) }
func (l Login) PasswordInput() browser.Element { return l.element(loginPassword) }
func (l Login) KeepSignedIn() browser.Element  { return l.element(keepSignedIn) }
func (l Login) SubmitButton() browser.Element  { return l.element(loginSubmitButton) }
func (l Login) Form() browser.Element          { return l.element(loginForm) }

// NavigateTo loads the login page.
func (l Login) NavigateTo(ctx context.Context) (Login, error) { return Goto(ctx, l) }

type loginOptions struct {
	keepSignedIn bool
}

// LoginOption adjusts FillLoginForm.
type LoginOption func(*loginOptions)

// WithoutKeepSignedIn leaves the "keep me signed in" box as it is.
func WithoutKeepSignedIn() LoginOption {
	return func(o *loginOptions) { o.keepSignedIn = false }
}

// FillLoginForm enters the user's credentials and, unless told otherwise, ticks
// "keep me signed in".
func (l Login) FillLoginForm(ctx context.Context, user factory.UserRecord, opts ...LoginOption) (Login, error) {
	o := loginOptions{keepSignedIn: true}
	for _, opt := range opts {
		opt(&o)
	}

	if err := l.EmailInput().Fill(ctx, user.Email); err != nil {
		return l, fmt.Errorf("login form: %w", err)
	}
	if err := l.PasswordInput().Fill(ctx, user.Password); err != nil {
		return l, fmt.Errorf("login form: %w", err)
	}
	if o.keepSignedIn {
		if err := l.drv.Check(ctx, keepSignedIn); err != nil {
			return l, fmt.Errorf("login form: %w", err)
		}
	}
	return l, nil
}

// ClickLogin submits the form.
func (l Login) ClickLogin(ctx context.Context) (Welcome, error) {
	return NewWelcome(l.drv), l.SubmitButton().Click(ctx)
}
