package sentiment

import "strings"

// Tally counts marker-word occurrences in one text.
type Tally struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Label applies the decision rule: a margin of two or more wins outright,
// otherwise any majority wins, otherwise the text is neutral.
func (t Tally) Label() Label {
	diff := t.Positive - t.Negative
	switch {
	case diff >= 2:
		return Positive
	case diff <= -2:
		return Negative
	case diff > 0:
		return Positive
	case diff < 0:
		return Negative
	default:
		return Neutral
	}
}

// Classifier labels review text. It holds no mutable state.
type Classifier struct {
	lexicon *Lexicon
}

// NewClassifier returns a classifier over lex, or over DefaultLexicon when
// lex is nil.
func NewClassifier(lex *Lexicon) *Classifier {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Classifier{lexicon: lex}
}

// Tally counts whole-word, case-insensitive marker occurrences in text.
// Repeated markers count once per occurrence.
func (c *Classifier) Tally(text string) Tally {
	var t Tally
	if strings.TrimSpace(text) == "" {
		return t
	}
	for _, w := range words(text) {
		switch c.lexicon.Polarity(w) {
		case 1:
			t.Positive++
		case -1:
			t.Negative++
		}
	}
	return t
}

// Classify returns the sentiment label of text. Empty text is Neutral.
func (c *Classifier) Classify(text string) Label {
	return c.Tally(text).Label()
}
