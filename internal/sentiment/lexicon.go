package sentiment

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

//go:embed lexicon/*.txt
var embeddedLexicon embed.FS

const (
	positiveFile = "positive.txt"
	negativeFile = "negative.txt"
)

// Lexicon holds the positive and negative marker words. It is immutable
// after construction and safe for concurrent use.
type Lexicon struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

// NewLexicon builds a lexicon from two word lists. Words are lowercased and
// trimmed; blanks are ignored. A word in both lists is an error.
func NewLexicon(positive, negative []string) (*Lexicon, error) {
	lex := &Lexicon{
		positive: toSet(positive),
		negative: toSet(negative),
	}

	var both []string
	for w := range lex.positive {
		if _, ok := lex.negative[w]; ok {
			both = append(both, w)
		}
	}
	if len(both) > 0 {
		sort.Strings(both)
		return nil, fmt.Errorf("lexicon: words listed as both positive and negative: %s", strings.Join(both, ", "))
	}
	if len(lex.positive) == 0 || len(lex.negative) == 0 {
		return nil, fmt.Errorf("lexicon: need at least one positive and one negative word, got %d and %d",
			len(lex.positive), len(lex.negative))
	}
	return lex, nil
}

// LoadLexicon reads positive.txt and negative.txt from the root of fsys.
// Each file holds one word per line; lines starting with # are comments.
func LoadLexicon(fsys fs.FS) (*Lexicon, error) {
	positive, err := readWordList(fsys, positiveFile)
	if err != nil {
		return nil, err
	}
	negative, err := readWordList(fsys, negativeFile)
	if err != nil {
		return nil, err
	}
	return NewLexicon(positive, negative)
}

var defaultLexicon = sync.OnceValues(func() (*Lexicon, error) {
	sub, err := fs.Sub(embeddedLexicon, "lexicon")
	if err != nil {
		return nil, err
	}
	return LoadLexicon(sub)
})

// DefaultLexicon returns the lexicon compiled into the binary. It is parsed
// once; a malformed embedded list is a build defect, so it panics.
func DefaultLexicon() *Lexicon {
	lex, err := defaultLexicon()
	if err != nil {
		panic(fmt.Sprintf("sentiment: embedded lexicon: %v", err))
	}
	return lex
}

// Polarity returns +1 for a positive marker, -1 for a negative marker and 0
// otherwise. word must already be lowercase.
func (l *Lexicon) Polarity(word string) int {
	if _, ok := l.positive[word]; ok {
		return 1
	}
	if _, ok := l.negative[word]; ok {
		return -1
	}
	return 0
}

// Len returns the number of positive and negative markers.
func (l *Lexicon) Len() (positive, negative int) {
	return len(l.positive), len(l.negative)
}

// Words returns both lists sorted, mainly for diagnostics.
func (l *Lexicon) Words() (positive, negative []string) {
	return sortedKeys(l.positive), sortedKeys(l.negative)
}

func readWordList(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open lexicon %s: %w", name, err)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", name, err)
	}
	return words, nil
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
