package reply

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy drops every element; bluemonday policies are safe for concurrent use
var stripPolicy = bluemonday.StrictPolicy()

// PlainText returns the text content of an HTML fragment, with all markup
// removed and entities decoded.
func PlainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	return html.UnescapeString(stripPolicy.Sanitize(fragment))
}
