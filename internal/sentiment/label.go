// Package sentiment classifies review text against a marker-word lexicon and
// rolls per-review labels up into a product-level summary.
package sentiment

// Label is the three-way sentiment of one review.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Valid reports whether l is one of the three labels.
func (l Label) Valid() bool {
	switch l {
	case Positive, Neutral, Negative:
		return true
	}
	return false
}

// OrNeutral returns l, or Neutral when l is empty or unrecognized.
func (l Label) OrNeutral() Label {
	if l.Valid() {
		return l
	}
	return Neutral
}
