package sentiment

import (
	"strings"
	"unicode"

	"github.com/tsawler/prose/v3"
)

// wordTokenizer is stateless apart from an internal token pool and is safe
// for concurrent use.
var wordTokenizer prose.Tokenizer = prose.NewIterTokenizer()

// words splits text into lowercase words. prose separates punctuation and
// contractions; each token is then cut at every rune that is not a letter,
// digit or underscore, so "well-made" yields "well" and "made". The result
// matches what a \b-delimited regular expression would treat as words.
func words(text string) []string {
	var out []string
	for _, tok := range wordTokenizer.Tokenize(text) {
		for _, w := range strings.FieldsFunc(tok.Text, isWordBoundary) {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

func isWordBoundary(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}
