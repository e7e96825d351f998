package suggest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxTagLength is the longest tag the engine emits, in runes.
const MaxTagLength = 50

// cleanToken reduces a token to letters, digits, '-' and '_'. Emoji and
// every other symbol are dropped. The result is NFC-normalised, trimmed of
// leading and trailing separators and cut to MaxTagLength runes.
func cleanToken(token string) string {
	token = norm.NFC.String(token)

	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if isTagRune(r) {
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), "-_")
	if utf8.RuneCountInString(out) > MaxTagLength {
		runes := []rune(out)
		out = strings.TrimRight(string(runes[:MaxTagLength]), "-_")
	}
	return out
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}

// isKeyword reports whether a cleaned token is a good primary candidate:
// at least two runes and not purely numeric.
func isKeyword(token string) bool {
	if utf8.RuneCountInString(token) < 2 {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) && r != '-' && r != '_' {
			return true
		}
	}
	return false
}

// IsValidTag reports whether s satisfies the output contract: non-empty,
// at most MaxTagLength runes, and only letters, digits, '-' or '_'.
func IsValidTag(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > MaxTagLength {
		return false
	}
	for _, r := range s {
		if !isTagRune(r) {
			return false
		}
	}
	return true
}
