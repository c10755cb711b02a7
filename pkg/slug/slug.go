// Package slug derives URL-friendly identifiers from product names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldings covers letters that do not decompose into base letter plus mark.
var foldings = strings.NewReplacer(
	"ı", "i", "ß", "ss", "ø", "o", "æ", "ae", "œ", "oe", "đ", "d", "ł", "l",
)

// Generate lowercases name, strips diacritics and joins the remaining
// alphanumeric runs with single hyphens:
//
//	"Kadın Giyim"          -> "kadin-giyim"
//	"Crème Brûlée Torch!"  -> "creme-brulee-torch"
func Generate(name string) string {
	lower := foldings.Replace(strings.ToLower(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, lower)
	if err != nil {
		ascii = lower
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range ascii {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
