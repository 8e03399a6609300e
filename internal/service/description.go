package service

import "strings"

// MergeDescription joins the per-product text with the universal boilerplate,
// dropping blank parts
func MergeDescription(customText, universalTemplate string) string {
	var parts []string
	for _, p := range []string{strings.TrimSpace(customText), strings.TrimSpace(universalTemplate)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n\n")
}

// escapes match the storefront's existing body_html exactly, including the
// numeric apostrophe entity and newline-to-<br> conversion, so html.EscapeString
// is not a drop-in replacement
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
	"\n", "<br>",
)

// EscapeHTML converts plain description text into storefront-safe HTML
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
