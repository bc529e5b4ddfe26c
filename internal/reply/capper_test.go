package reply

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCap(t *testing.T) {
	markerLen := utf8.RuneCountInString(TruncationMarker)

	t.Run("under limit unchanged", func(t *testing.T) {
		in := strings.Repeat("a", MaxChars)
		assert.Equal(t, in, Cap(in, MaxChars))
	})

	t.Run("over limit truncated", func(t *testing.T) {
		in := strings.Repeat("a", MaxChars+1)
		out := Cap(in, MaxChars)
		assert.Equal(t, MaxChars+markerLen, utf8.RuneCountInString(out))
		assert.True(t, strings.HasSuffix(out, TruncationMarker))
		assert.Equal(t, strings.Repeat("a", MaxChars), strings.TrimSuffix(out, TruncationMarker))
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		in := strings.Repeat("é", 12)
		out := Cap(in, 10)
		assert.Equal(t, strings.Repeat("é", 10)+TruncationMarker, out)
		assert.True(t, utf8.ValidString(out))
	})

	t.Run("cuts mid tag", func(t *testing.T) {
		out := Cap(`<p class="x">hello</p>`, 5)
		assert.Equal(t, `<p cl`+TruncationMarker, out)
	})
}
