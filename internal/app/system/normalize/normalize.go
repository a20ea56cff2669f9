// Package normalize cleans user-supplied strings before they are stored or
// compared.
package normalize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// plain strips all markup. bluemonday escapes the text it keeps; the escapes
// are undone so names like O'Brien are stored as typed.
func plain(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

// Email trims surrounding whitespace. Case is preserved: addresses are stored
// and matched exactly as the user typed them.
func Email(s string) string {
	return strings.TrimSpace(s)
}

// Name trims whitespace, strips any markup and collapses internal runs of
// whitespace to a single space.
func Name(s string) string {
	return strings.Join(strings.Fields(plain(s)), " ")
}

// Text strips markup from free-form text such as descriptions. Line breaks are
// kept; only surrounding whitespace is trimmed.
func Text(s string) string {
	return strings.TrimSpace(plain(s))
}

// InviteCode trims whitespace. Codes are case-sensitive.
func InviteCode(s string) string {
	return strings.TrimSpace(s)
}

// Provider upper-cases and trims an account provider name.
func Provider(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
