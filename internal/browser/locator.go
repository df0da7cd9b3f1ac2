// internal/browser/locator.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
)

// SelectorKind tells the session how to resolve a Locator.
type SelectorKind int

const (
	// CSS selectors are resolved with document.querySelector.
	CSS SelectorKind = iota
	// XPath expressions are resolved with DOM.performSearch.
	XPath
)

// Locator is a lazy description of how to find an element. Nothing is resolved until an
// interaction runs, so a Locator stays valid across navigations and re-renders.
type Locator struct {
	Selector    string
	Kind        SelectorKind
	Description string
}

// String returns the human description, falling back to the raw selector.
func (l Locator) String() string {
	if l.Description != "" {
		return l.Description
	}
	return l.Selector
}

// IsZero reports whether the locator was never set.
func (l Locator) IsZero() bool { return l.Selector == "" }

func (l Locator) queryOptions() []chromedp.QueryOption {
	if l.Kind == XPath {
		return []chromedp.QueryOption{chromedp.BySearch}
	}
	return []chromedp.QueryOption{chromedp.ByQuery}
}

// resolveJS returns a JS expression evaluating to the first matching element or null.
func (l Locator) resolveJS() string {
	sel, _ := json.MarshalToString(l.Selector)
	if l.Kind == XPath {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", sel)
	}
	return fmt.Sprintf("document.querySelector(%s)", sel)
}

// resolveAllJS returns a JS expression evaluating to an array of every matching element.
func (l Locator) resolveAllJS() string {
	sel, _ := json.MarshalToString(l.Selector)
	if l.Kind == XPath {
		return fmt.Sprintf(`(() => { const r = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null); const out = []; for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i)); return out; })()`, sel)
	}
	return fmt.Sprintf("Array.from(document.querySelectorAll(%s))", sel)
}

// ByCSS locates by CSS selector.
func ByCSS(selector string) Locator {
	return Locator{Selector: selector, Kind: CSS, Description: selector}
}

// ByTestID locates by the data-testid attribute.
func ByTestID(id string) Locator {
	return Locator{
		Selector:    fmt.Sprintf(`[data-testid=%s]`, cssString(id)),
		Kind:        CSS,
		Description: fmt.Sprintf("test id %q", id),
	}
}

// ByPlaceholder locates an input by its exact placeholder text.
func ByPlaceholder(text string) Locator {
	return Locator{
		Selector:    fmt.Sprintf(`[placeholder=%s]`, cssString(text)),
		Kind:        CSS,
		Description: fmt.Sprintf("placeholder %q", text),
	}
}

// ByRole locates by ARIA role and, when name is non-empty, accessible name. Implicit roles
// are covered for the elements the harness drives (links, buttons, headings, checkboxes).
// Names match as a case-insensitive substring of the text, aria-label or value.
func ByRole(role, name string) Locator {
	desc := fmt.Sprintf("%s %q", role, name)
	if name == "" {
		desc = role
	}

	var tests []string
	switch role {
	case "link":
		tests = []string{"self::a[@href]"}
	case "button":
		tests = []string{"self::button", `self::input[@type="submit" or @type="button"]`}
	case "heading":
		tests = []string{"self::h1", "self::h2", "self::h3", "self::h4", "self::h5", "self::h6"}
	case "checkbox":
		tests = []string{`self::input[@type="checkbox"]`}
	}
	tests = append(tests, fmt.Sprintf("@role=%s", xpathLiteral(role)))

	expr := fmt.Sprintf("//*[%s]", strings.Join(tests, " or "))
	if name != "" {
		expr = fmt.Sprintf("//*[(%s) and (%s or %s or %s)]",
			strings.Join(tests, " or "),
			ciContains("normalize-space(.)", name),
			ciContains("@aria-label", name),
			ciContains("@value", name))
	}
	return Locator{Selector: expr, Kind: XPath, Description: desc}
}

// ByLabelText locates a form control whose label contains text, ignoring case.
// Both wrapping labels and label[for] are supported.
func ByLabelText(text string) Locator {
	match := ciContains("normalize-space(.)", text)
	expr := fmt.Sprintf("//label[%[1]s]//input | //input[@id = //label[%[1]s]/@for]", match)
	return Locator{Selector: expr, Kind: XPath, Description: fmt.Sprintf("label %q", text)}
}

// ciContains builds a case-insensitive XPath 1.0 substring test.
func ciContains(expr, text string) string {
	const upper, lower = "'ABCDEFGHIJKLMNOPQRSTUVWXYZ'", "'abcdefghijklmnopqrstuvwxyz'"
	return fmt.Sprintf("contains(translate(%s, %s, %s), %s)", expr, upper, lower, xpathLiteral(strings.ToLower(text)))
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
