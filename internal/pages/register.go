// internal/pages/register.go
package pages

import (
	"context"
	"fmt"
	"regexp"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/factory"
)

var (
	registerURL      = regexp.MustCompile(`.*register\.html`)
	registerHeading  = browser.ByRole("heading", "Register")
	firstNameInput   = browser.ByPlaceholder("Enter User First Name")
	lastNameInput    = browser.ByPlaceholder("Enter User Last Name")
	registerEmail    = browser.ByPlaceholder("Enter User Email")
	birthDateInput   = browser.ByPlaceholder("Enter Birth Date")
	registerPassword = browser.ByPlaceholder("Enter Password")
	registerButton   = browser.ByRole("button", "Register")
	registerForm     = browser.ByCSS("form#registerForm")
	userPicture      = browser.ByCSS("img#userPicture")
	avatarSelect     = browser.ByCSS("select#avatar")
)

// Register is the sign-up form.
type Register struct{ frame }

func NewRegister(drv browser.Driver) Register { return Register{frame{drv}} }

func (Register) Name() string                      { return "registerPage" }
func (Register) Path() string                      { return "/register.html" }
func (Register) ExpectedURL() *regexp.Regexp       { return registerURL }
func (r Register) Heading() browser.Element        { return r.element(registerHeading) }
func (r Register) FirstNameInput() browser.Element { return r.element(firstNameInput) }
func (r Register) LastNameInput() browser.Element  { return r.element(lastNameInput) }
func (r Register) EmailInput() browser.Element     { return r.element(registerEmail) }
func (r Register) BirthDateInput() browser.Element { return r.element(birthDateInput) }
func (r Register) PasswordInput() browser.Element  { return r.element(registerPassword) }
func (r Register) SubmitButton() browser.Element   { return r.element(registerButton) }
func (r Register) Form() browser.Element           { return r.element(registerForm) }
func (r Register) UserPicture() browser.Element    { return r.element(userPicture) }
func (r Register) AvatarSelect() browser.Element   { return r.element(avatarSelect) }

// NavigateTo loads the registration page.
func (r Register) NavigateTo(ctx context.Context) (Register, error) { return Goto(ctx, r) }

// FillRegistrationForm enters every field of user. The birth date input opens a date
// picker that covers the password field, so Escape is pressed to close it first.
func (r Register) FillRegistrationForm(ctx context.Context, user factory.UserRecord) (Register, error) {
	steps := []struct {
		field browser.Element
		value string
	}{
		{r.FirstNameInput(), user.FirstName},
		{r.LastNameInput(), user.LastName},
		{r.EmailInput(), user.Email},
		{r.BirthDateInput(), user.BirthDate},
	}
	for _, step := range steps {
		if err := step.field.Fill(ctx, step.value); err != nil {
			return r, fmt.Errorf("registration form: %w", err)
		}
	}

	if err := r.drv.Press(ctx, browser.KeyEscape); err != nil {
		return r, fmt.Errorf("registration form: dismiss date picker: %w", err)
	}

	if err := r.PasswordInput().Fill(ctx, user.Password); err != nil {
		return r, fmt.Errorf("registration form: %w", err)
	}
	return r, nil
}

// ClickRegister submits the form. A successful registration lands on the login page.
func (r Register) ClickRegister(ctx context.Context) (Login, error) {
	return NewLogin(r.drv), r.SubmitButton().Click(ctx)
}
