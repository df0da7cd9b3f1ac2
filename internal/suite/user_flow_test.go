//go:build e2e

package suite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/fixtures"
)

func TestRegistration_CreatesUser(t *testing.T) {
	h := fixtures.New(t)
	register(t, h, johnDoe())
}

func TestRegistration_GeneratedUser(t *testing.T) {
	h := fixtures.New(t)
	register(t, h, h.NewUser())
}

func TestLogin_AfterRegistration(t *testing.T) {
	h := fixtures.New(t)
	user := johnDoe()
	login := register(t, h, user)

	login, err := login.FillLoginForm(h.Ctx, user)
	require.NoError(t, err)
	welcome, err := login.ClickLogin(h.Ctx)
	require.NoError(t, err)

	require.NoError(t, browser.ExpectURL(h.Ctx, h.Session, welcome.ExpectedURL(), welcomeTimeout))
	welcome, err = welcome.OpenUserDropdown(h.Ctx)
	require.NoError(t, err)
	require.NoError(t, welcome.Username().WaitForText(h.Ctx, "John", verifyTimeout))
}
