package report

import (
	"strings"
	"unicode"
)

// minFence is the shortest backtick run that opens or closes a code fence.
const minFence = 3

// StripFence removes markdown code-fence markers (runs of three or more
// backticks) wrapped around a model response, along with any language tag
// after the opening marker. It is idempotent:
// StripFence(StripFence(s)) == StripFence(s).
func StripFence(s string) string {
	for {
		t := stripFenceOnce(s)
		if t == s {
			return t
		}
		s = t
	}
}

func stripFenceOnce(s string) string {
	t := strings.TrimSpace(s)
	if rest, ok := cutFence(t, strings.TrimLeft); ok {
		tag := strings.TrimLeftFunc(rest, isTagRune)
		if tag == "" || tag[0] == '{' || tag[0] == '[' || unicode.IsSpace(rune(tag[0])) {
			rest = tag
		}
		t = rest
	}
	if rest, ok := cutFence(t, strings.TrimRight); ok {
		t = rest
	}
	return strings.TrimSpace(t)
}

// cutFence trims a backtick run from one end of s using trim, if the run is
// long enough to be a fence.
func cutFence(s string, trim func(string, string) string) (string, bool) {
	rest := trim(s, "`")
	if len(s)-len(rest) < minFence {
		return s, false
	}
	return rest, true
}

// isTagRune matches characters of a fence language tag such as "json" or "json5".
func isTagRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+')
}
