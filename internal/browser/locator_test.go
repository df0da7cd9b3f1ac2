// internal/browser/locator_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocatorConstructors(t *testing.T) {
	t.Run("test id", func(t *testing.T) {
		loc := ByTestID("btn-dropdown")
		assert.Equal(t, `[data-testid="btn-dropdown"]`, loc.Selector)
		assert.Equal(t, CSS, loc.Kind)
		assert.Equal(t, `test id "btn-dropdown"`, loc.String())
	})

	t.Run("placeholder quotes are escaped", func(t *testing.T) {
		loc := ByPlaceholder(`Enter "User" Email`)
		assert.Equal(t, `[placeholder="Enter \"User\" Email"]`, loc.Selector)
	})

	t.Run("role without name", func(t *testing.T) {
		loc := ByRole("alert", "")
		assert.Equal(t, XPath, loc.Kind)
		assert.Contains(t, loc.Selector, "@role='alert'")
		assert.Equal(t, "alert", loc.String())
	})

	t.Run("role with name matches text case-insensitively", func(t *testing.T) {
		loc := ByRole("button", "LogIn")
		assert.Contains(t, loc.Selector, "self::button")
		assert.Contains(t, loc.Selector, "'login'")
		assert.Contains(t, loc.Selector, "translate(normalize-space(.)")
		assert.Equal(t, `button "LogIn"`, loc.String())
	})

	t.Run("heading covers h1 to h6", func(t *testing.T) {
		loc := ByRole("heading", "Register")
		for _, h := range []string{"self::h1", "self::h6"} {
			assert.Contains(t, loc.Selector, h)
		}
	})

	t.Run("label text", func(t *testing.T) {
		loc := ByLabelText("keep me sign in")
		assert.Equal(t, XPath, loc.Kind)
		assert.Contains(t, loc.Selector, "//label[")
		assert.Contains(t, loc.Selector, "@for]")
	})

	t.Run("zero value", func(t *testing.T) {
		assert.True(t, Locator{}.IsZero())
		assert.False(t, ByCSS("#username").IsZero())
	})
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "'plain'"},
		{"it's", `"it's"`},
		{`it's "quoted"`, `concat('it', "'", 's "quoted"')`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, xpathLiteral(tt.in), tt.in)
	}
}

func TestResolveJS(t *testing.T) {
	assert.Equal(t, `document.querySelector("#username")`, ByCSS("#username").resolveJS())
	assert.Contains(t, ByRole("alert", "").resolveJS(), "document.evaluate(")
	assert.Contains(t, ByCSS("img").resolveAllJS(), "querySelectorAll")
}

func TestGlobToRegexp(t *testing.T) {
	re := globToRegexp("*/api/images/user")
	assert.True(t, re.MatchString("http://localhost:3000/api/images/user"))
	assert.False(t, re.MatchString("http://localhost:3000/api/images/user/1"))

	q := globToRegexp("http://host/?.png")
	assert.True(t, q.MatchString("http://host/a.png"))
	assert.False(t, q.MatchString("http://host/ab.png"))

	lit := globToRegexp(`http://host/literal\*`)
	assert.True(t, lit.MatchString("http://host/literal*"))
	assert.False(t, lit.MatchString("http://host/literalX"))
}
