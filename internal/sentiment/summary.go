package sentiment

import "math"

// OverallRating is the qualitative bucket of a sentiment score. The string
// values are part of the API contract.
type OverallRating string

const (
	RatingExcellent    OverallRating = "Excellent"
	RatingGood         OverallRating = "Good"
	RatingAverage      OverallRating = "Average"
	RatingBelowAverage OverallRating = "Below Average"
	RatingPoor         OverallRating = "Poor"
	RatingNoReviews    OverallRating = "No Reviews"
)

// Counts holds raw label counts.
type Counts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Summary is the read-time sentiment rollup for one product. Percentages are
// rounded independently and may not add up to 100.
type Summary struct {
	Total          int           `json:"total"`
	Positive       int           `json:"positive"`
	Neutral        int           `json:"neutral"`
	Negative       int           `json:"negative"`
	SentimentScore int           `json:"sentimentScore"`
	OverallRating  OverallRating `json:"overallRating"`
	Counts         Counts        `json:"counts"`
}

// Summarize computes the summary of a product's review labels. Empty or
// unknown labels count as Neutral.
func Summarize(labels []Label) Summary {
	var c Counts
	for _, l := range labels {
		switch l.OrNeutral() {
		case Positive:
			c.Positive++
		case Negative:
			c.Negative++
		default:
			c.Neutral++
		}
	}
	return SummarizeCounts(c)
}

// SummarizeCounts computes a summary from precomputed counts.
func SummarizeCounts(c Counts) Summary {
	total := c.Positive + c.Neutral + c.Negative
	if total == 0 {
		return Summary{OverallRating: RatingNoReviews}
	}

	score := roundHalfUp(float64(100*c.Positive+50*c.Neutral) / float64(total))
	return Summary{
		Total:          total,
		Positive:       percent(c.Positive, total),
		Neutral:        percent(c.Neutral, total),
		Negative:       percent(c.Negative, total),
		SentimentScore: score,
		OverallRating:  RatingForScore(score),
		Counts:         c,
	}
}

// RatingForScore buckets a 0..100 sentiment score.
func RatingForScore(score int) OverallRating {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 65:
		return RatingGood
	case score >= 45:
		return RatingAverage
	case score >= 30:
		return RatingBelowAverage
	default:
		return RatingPoor
	}
}

func percent(count, total int) int {
	return roundHalfUp(float64(count) / float64(total) * 100)
}

// roundHalfUp rounds non-negative x with ties going up, so 62.5 becomes 63.
// math.Round sends ties away from zero, which is up for these inputs.
func roundHalfUp(x float64) int {
	return int(math.Round(x))
}
