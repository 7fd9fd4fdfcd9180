package surface

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ScreenName converts a widget page name such as "addresses_screen" into the
// host's screen name ("Addresses").
func ScreenName(pageName string) string {
	var b strings.Builder
	for _, word := range strings.Split(pageName, "_") {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(word[size:])
	}

	return strings.Replace(b.String(), "Screen", "", 1)
}
