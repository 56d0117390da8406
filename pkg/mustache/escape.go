package mustache

import "strings"

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// HTMLEscape replaces &, <, > and " with their HTML entities.
func HTMLEscape(s string) string {
	return htmlReplacer.Replace(s)
}

// NoEscape returns s unchanged.
func NoEscape(s string) string { return s }
