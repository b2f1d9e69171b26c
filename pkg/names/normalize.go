package names

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the lexicon key for a raw name: NFC-composed, trimmed
// and lower-cased. The result is empty for blank input and for input that is
// not valid UTF-8.
func Normalize(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return ""
	}
	// cases.Caser is stateful and not safe for concurrent use.
	return cases.Lower(language.Und).String(s)
}
