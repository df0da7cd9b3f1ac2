//go:build e2e

package suite

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-e2e/internal/factory"
	"github.com/xkilldash9x/scalpel-e2e/internal/fixtures"
	"github.com/xkilldash9x/scalpel-e2e/internal/pages"
)

const (
	verifyTimeout  = 10 * time.Second
	welcomeTimeout = 10 * time.Second
)

// johnDoe is the fixed identity used by the registration and login scenarios. The email is
// made unique per run so repeated runs against the same backend do not collide.
func johnDoe() factory.UserRecord {
	return factory.UserRecord{
		FirstName: "John",
		LastName:  "Doe",
		Email:     fmt.Sprintf("john.doe.%d@example.com", time.Now().UnixMilli()),
		BirthDate: "1990-01-01",
		Password:  "SecurePass123!",
	}
}

// register creates user through the UI, waits for the confirmation alert and verifies
// that the form hands over to the login page.
func register(t *testing.T, h *fixtures.Harness, user factory.UserRecord) pages.Login {
	t.Helper()
	reg, err := h.Pages.Register().NavigateTo(h.Ctx)
	require.NoError(t, err)
	require.NoError(t, pages.Verify(h.Ctx, reg, verifyTimeout))

	reg, err = reg.FillRegistrationForm(h.Ctx, user)
	require.NoError(t, err)
	login, err := reg.ClickRegister(h.Ctx)
	require.NoError(t, err)
	require.NoError(t, reg.Alert().WaitForText(h.Ctx, "User created", verifyTimeout))
	require.NoError(t, pages.Verify(h.Ctx, login, verifyTimeout))
	return login
}
