// internal/audit/pageid.go
package audit

import (
	"net/url"
	"path"
	"strings"
)

// PageIdentifier derives the stable artifact key for a page from its URL path: lower-cased,
// without surrounding slashes or a trailing ".html", inner slashes turned into dashes,
// "home" for the root, with a "-page" suffix. "http://host/register.html" becomes
// "register-page" and "http://host/admin/settings" becomes "admin-settings-page".
//
// Non-HTTP URLs such as about:blank get a key built from their scheme so they never
// collide with the home page.
func PageIdentifier(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return sanitizeKey(rawURL) + "-page"
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		rest := u.Opaque
		if rest == "" {
			rest = u.Host + u.Path
		}
		return sanitizeKey(u.Scheme+"-"+rest) + "-page"
	}

	p := strings.ToLower(u.Path)
	if p != "" {
		p = path.Clean("/" + p)
	}
	p = strings.TrimSuffix(strings.Trim(p, "/"), ".html")
	if p == "" {
		return "home-page"
	}
	return sanitizeKey(strings.ReplaceAll(p, "/", "-")) + "-page"
}

const maxKeyLength = 80

// sanitizeKey keeps keys usable as file names: [a-z0-9._-] only, runs of anything else
// collapsed to one dash.
func sanitizeKey(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			dash = false
		case !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	key := strings.Trim(b.String(), "-.")
	if len(key) > maxKeyLength {
		key = strings.TrimRight(key[:maxKeyLength], "-.")
	}
	if key == "" {
		return "unknown"
	}
	return key
}
