//go:build e2e

package suite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-e2e/internal/fixtures"
	"github.com/xkilldash9x/scalpel-e2e/internal/pages"
	"github.com/xkilldash9x/scalpel-e2e/internal/visual"
)

// requireSnapshot fails on a mismatch. A freshly written baseline is reported and passes.
func requireSnapshot(t *testing.T, h *fixtures.Harness, name string, opts ...visual.MatchOption) {
	t.Helper()
	result, err := h.Snapshotter().Match(h.Ctx, h.Session, name, opts...)
	if errors.Is(err, visual.ErrBaselineCreated) {
		t.Logf("baseline written to %s", result.BaselinePath)
		return
	}
	require.NoError(t, err)
}

func TestVisual_Home(t *testing.T) {
	h := fixtures.New(t)
	home, err := h.Pages.Home().NavigateTo(h.Ctx)
	require.NoError(t, err)
	require.NoError(t, pages.Verify(h.Ctx, home, verifyTimeout))
	requireSnapshot(t, h, "home")
}

func TestVisual_LoginForm(t *testing.T) {
	h := fixtures.New(t)
	login, err := h.Pages.Login().NavigateTo(h.Ctx)
	require.NoError(t, err)
	require.NoError(t, pages.Verify(h.Ctx, login, verifyTimeout))
	require.NoError(t, login.Heading().WaitVisible(h.Ctx, verifyTimeout))
	requireSnapshot(t, h, "login-form", visual.OfElement(login.Form().Locator()))
}

func TestVisual_RegisterForm(t *testing.T) {
	h := fixtures.New(t)
	reg, err := h.Pages.Register().NavigateTo(h.Ctx)
	require.NoError(t, err)
	require.NoError(t, pages.Verify(h.Ctx, reg, verifyTimeout))
	requireSnapshot(t, h, "register-form",
		visual.OfElement(reg.Form().Locator()),
		visual.WithMask(reg.UserPicture().Locator(), reg.AvatarSelect().Locator()))
}

func TestVisual_RegisterFormWithMockedAvatars(t *testing.T) {
	h := fixtures.New(t)
	require.NoError(t, h.Session.MockJSON(h.Ctx, "*/api/images/user", []string{"_default.png"}))

	reg, err := h.Pages.Register().NavigateTo(h.Ctx)
	require.NoError(t, err)
	require.NoError(t, pages.Verify(h.Ctx, reg, verifyTimeout))
	requireSnapshot(t, h, "register-form-mocked", visual.OfElement(reg.Form().Locator()))
}
