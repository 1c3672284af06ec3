package utils

import (
	"strings"
	"unicode"
)

var slugReplacer = strings.NewReplacer(
	"å", "a", "ä", "a", "ö", "o",
	"é", "e", "è", "e", "ü", "u",
)

// Slugify turns a restaurant name into its URL slug, e.g.
// "Råå Fisk & Bar" -> "raa-fisk-bar".
func Slugify(name string) string {
	s := slugReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))

	var b strings.Builder
	dash := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
