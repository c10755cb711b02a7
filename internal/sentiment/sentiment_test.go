package sentiment

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLexicon(t *testing.T) {
	lex := DefaultLexicon()

	pos, neg := lex.Len()
	assert.GreaterOrEqual(t, pos, 30)
	assert.GreaterOrEqual(t, neg, 30)

	for _, w := range []string{"good", "excellent", "reliable", "nice"} {
		assert.Equal(t, 1, lex.Polarity(w), w)
	}
	for _, w := range []string{"bad", "broken", "refund", "terrible"} {
		assert.Equal(t, -1, lex.Polarity(w), w)
	}
	for _, w := range []string{"and", "but", "the", "classic"} {
		assert.Equal(t, 0, lex.Polarity(w), w)
	}
	assert.Same(t, lex, DefaultLexicon())
}

func TestNewLexicon_Normalizes(t *testing.T) {
	lex, err := NewLexicon([]string{" Great ", "", "great"}, []string{"AWFUL"})
	require.NoError(t, err)

	pos, neg := lex.Words()
	assert.Equal(t, []string{"great"}, pos)
	assert.Equal(t, []string{"awful"}, neg)
}

func TestNewLexicon_RejectsOverlap(t *testing.T) {
	_, err := NewLexicon([]string{"cheap", "good"}, []string{"Cheap", "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cheap")
}

func TestNewLexicon_RejectsEmptyList(t *testing.T) {
	_, err := NewLexicon([]string{"good"}, nil)
	assert.Error(t, err)
}

func TestLoadLexicon(t *testing.T) {
	fsys := fstest.MapFS{
		"positive.txt": {Data: []byte("# comment\nsplendid\n\nsnappy\n")},
		"negative.txt": {Data: []byte("sluggish\n")},
	}

	lex, err := LoadLexicon(fsys)
	require.NoError(t, err)
	assert.Equal(t, 1, lex.Polarity("splendid"))
	assert.Equal(t, -1, lex.Polarity("sluggish"))
	assert.Equal(t, 0, lex.Polarity("# comment"))

	c := NewClassifier(lex)
	assert.Equal(t, Positive, c.Classify("Splendid and snappy"))
	assert.Equal(t, Neutral, c.Classify("good"))
}

func TestLoadLexicon_MissingFile(t *testing.T) {
	_, err := LoadLexicon(fstest.MapFS{"positive.txt": {Data: []byte("good\n")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative.txt")
}

func TestClassify_EmptyIsNeutral(t *testing.T) {
	c := NewClassifier(nil)
	assert.Equal(t, Neutral, c.Classify(""))
	assert.Equal(t, Neutral, c.Classify("   "))
}

func TestClassify_DecisionRule(t *testing.T) {
	tests := []struct {
		tally Tally
		want  Label
	}{
		{Tally{0, 0}, Neutral},
		{Tally{3, 3}, Neutral},
		{Tally{2, 0}, Positive},
		{Tally{2, 1}, Positive},
		{Tally{1, 0}, Positive},
		{Tally{0, 2}, Negative},
		{Tally{1, 3}, Negative},
		{Tally{4, 5}, Negative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tally.Label(), "%+v", tt.tally)
	}
}

func TestClassify_Examples(t *testing.T) {
	c := NewClassifier(nil)

	assert.Equal(t, Tally{Positive: 2, Negative: 1}, c.Tally("excellent, excellent, bad"))
	assert.Equal(t, Positive, c.Classify("excellent, excellent, bad"))

	assert.Equal(t, Tally{Positive: 1, Negative: 3}, c.Tally("terrible and broken and bad, but nice"))
	assert.Equal(t, Negative, c.Classify("terrible and broken and bad, but nice"))
}

func TestClassify_WholeWordsOnly(t *testing.T) {
	lex, err := NewLexicon([]string{"class"}, []string{"ass"})
	require.NoError(t, err)
	c := NewClassifier(lex)

	assert.Equal(t, Tally{}, c.Tally("classic bass classes"))
	assert.Equal(t, Tally{Positive: 1}, c.Tally("first-class"))
}

func TestClassify_ConcurrentUse(t *testing.T) {
	c := NewClassifier(nil)
	texts := []string{"great great", "bad bad", "fine", strings.Repeat("nice broken ", 50)}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := texts[i%len(texts)]
			assert.Equal(t, c.Classify(text), c.Classify(text))
		}(i)
	}
	wg.Wait()
}

func TestLabel_OrNeutral(t *testing.T) {
	assert.Equal(t, Positive, Positive.OrNeutral())
	assert.Equal(t, Negative, Negative.OrNeutral())
	assert.Equal(t, Neutral, Label("").OrNeutral())
	assert.Equal(t, Neutral, Label("POSITIVE").OrNeutral())
}

func TestSummarize_Mixed(t *testing.T) {
	s := Summarize([]Label{Positive, Positive, Neutral, Negative})

	assert.Equal(t, Summary{
		Total:          4,
		Positive:       50,
		Neutral:        25,
		Negative:       25,
		SentimentScore: 63,
		OverallRating:  RatingAverage,
		Counts:         Counts{Positive: 2, Neutral: 1, Negative: 1},
	}, s)
}

func TestSummarize_Empty(t *testing.T) {
	for _, labels := range [][]Label{nil, {}} {
		s := Summarize(labels)
		assert.Equal(t, Summary{OverallRating: RatingNoReviews}, s)
	}
}

func TestSummarize_UnknownLabelsCountAsNeutral(t *testing.T) {
	s := Summarize([]Label{Positive, "", "mixed"})

	assert.Equal(t, Counts{Positive: 1, Neutral: 2}, s.Counts)
	assert.Equal(t, 67, s.SentimentScore)
	assert.Equal(t, RatingGood, s.OverallRating)
}

func TestSummarize_PercentagesMayNotSumTo100(t *testing.T) {
	s := Summarize([]Label{Positive, Neutral, Negative})

	assert.Equal(t, 33, s.Positive)
	assert.Equal(t, 33, s.Neutral)
	assert.Equal(t, 33, s.Negative)
	assert.Equal(t, 99, s.Positive+s.Neutral+s.Negative)

	s = Summarize([]Label{Positive, Positive, Positive, Negative, Negative, Negative, Neutral, Neutral})
	assert.Equal(t, 101, s.Positive+s.Neutral+s.Negative) // 38 + 25 + 38
}

func TestSummarize_TiesRoundUp(t *testing.T) {
	// 5 of 8 positive: 62.5% positive, 37.5% negative, score 62.5.
	s := SummarizeCounts(Counts{Positive: 5, Negative: 3})
	assert.Equal(t, 63, s.Positive)
	assert.Equal(t, 38, s.Negative)
	assert.Equal(t, 63, s.SentimentScore)
	assert.Equal(t, RatingAverage, s.OverallRating)

	assert.Equal(t, 0, roundHalfUp(0.49999999999999994))
	assert.Equal(t, 1, roundHalfUp(0.5))
	assert.Equal(t, 13, roundHalfUp(12.5))
}

func TestSummarize_Idempotent(t *testing.T) {
	labels := []Label{Negative, Positive, Neutral, Positive, Negative}
	assert.Equal(t, Summarize(labels), Summarize(labels))
	assert.Equal(t, []Label{Negative, Positive, Neutral, Positive, Negative}, labels)
}

func TestRatingForScore(t *testing.T) {
	tests := []struct {
		score int
		want  OverallRating
	}{
		{100, RatingExcellent},
		{80, RatingExcellent},
		{79, RatingGood},
		{65, RatingGood},
		{64, RatingAverage},
		{45, RatingAverage},
		{44, RatingBelowAverage},
		{30, RatingBelowAverage},
		{29, RatingPoor},
		{0, RatingPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RatingForScore(tt.score), "score %d", tt.score)
	}
}

func TestSummary_JSONShape(t *testing.T) {
	raw, err := json.Marshal(Summarize([]Label{Positive}))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"total": 1, "positive": 100, "neutral": 0, "negative": 0,
		"sentimentScore": 100, "overallRating": "Excellent",
		"counts": {"positive": 1, "neutral": 0, "negative": 0}
	}`, string(raw))
}

func TestBadgeForSentiment(t *testing.T) {
	assert.Equal(t, SentimentBadge{Label: "Positive", Color: "#10b981", BackgroundColor: "#d1fae5", Icon: "😊"}, BadgeForSentiment(Positive))
	assert.Equal(t, SentimentBadge{Label: "Neutral", Color: "#6b7280", BackgroundColor: "#f3f4f6", Icon: "😐"}, BadgeForSentiment(Neutral))
	assert.Equal(t, SentimentBadge{Label: "Negative", Color: "#ef4444", BackgroundColor: "#fee2e2", Icon: "😞"}, BadgeForSentiment(Negative))
	assert.Equal(t, BadgeForSentiment(Neutral), BadgeForSentiment("unknown"))
}

func TestBadgeForOverallRating(t *testing.T) {
	for _, r := range []OverallRating{RatingExcellent, RatingGood, RatingAverage, RatingBelowAverage, RatingPoor, RatingNoReviews} {
		b := BadgeForOverallRating(r)
		assert.NotEmpty(t, b.Color, r)
		assert.NotEmpty(t, b.BackgroundColor, r)
		assert.NotEmpty(t, b.Icon, r)
		assert.NotEmpty(t, b.Description, r)
	}

	assert.Equal(t, "#059669", BadgeForOverallRating(RatingExcellent).Color)
	assert.Equal(t, "#ef4444", BadgeForOverallRating(RatingPoor).Color)
	assert.Equal(t, BadgeForOverallRating(RatingNoReviews), BadgeForOverallRating("Stellar"))
}
