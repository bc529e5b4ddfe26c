package reply

import "unicode/utf8"

const (
	// MaxChars is the default reply size limit, in characters
	MaxChars = 200000
	// TruncationMarker is appended to replies cut at the limit
	TruncationMarker = "<p>…(truncated)</p>"
)

// Cap truncates fragment to max characters and appends TruncationMarker.
// The cut ignores tag boundaries; the typography pass reparses the result.
func Cap(fragment string, max int) string {
	if max <= 0 || utf8.RuneCountInString(fragment) <= max {
		return fragment
	}
	n := 0
	for i := range fragment {
		if n == max {
			return fragment[:i] + TruncationMarker
		}
		n++
	}
	return fragment
}
