package sentiment

// SentimentBadge is the display descriptor of one review's label.
type SentimentBadge struct {
	Label           string `json:"label"`
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	Icon            string `json:"icon"`
}

// RatingBadge is the display descriptor of a product's overall rating.
type RatingBadge struct {
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	Icon            string `json:"icon"`
	Description     string `json:"description"`
}

var sentimentBadges = map[Label]SentimentBadge{
	Positive: {Label: "Positive", Color: "#10b981", BackgroundColor: "#d1fae5", Icon: "😊"},
	Neutral:  {Label: "Neutral", Color: "#6b7280", BackgroundColor: "#f3f4f6", Icon: "😐"},
	Negative: {Label: "Negative", Color: "#ef4444", BackgroundColor: "#fee2e2", Icon: "😞"},
}

var ratingBadges = map[OverallRating]RatingBadge{
	RatingExcellent:    {Color: "#059669", BackgroundColor: "#d1fae5", Icon: "🌟", Description: "Customers love this product"},
	RatingGood:         {Color: "#10b981", BackgroundColor: "#ecfdf5", Icon: "👍", Description: "Most customers are happy with this product"},
	RatingAverage:      {Color: "#f59e0b", BackgroundColor: "#fef3c7", Icon: "😐", Description: "Customer opinions are mixed"},
	RatingBelowAverage: {Color: "#f97316", BackgroundColor: "#ffedd5", Icon: "👎", Description: "Many customers report problems"},
	RatingPoor:         {Color: "#ef4444", BackgroundColor: "#fee2e2", Icon: "⚠️", Description: "Most customers are unhappy with this product"},
	RatingNoReviews:    {Color: "#6b7280", BackgroundColor: "#f3f4f6", Icon: "💬", Description: "No reviews yet"},
}

// BadgeForSentiment returns the badge of l; unknown labels get the neutral one.
func BadgeForSentiment(l Label) SentimentBadge {
	return sentimentBadges[l.OrNeutral()]
}

// BadgeForOverallRating returns the badge of r; unknown buckets get the
// "No Reviews" one.
func BadgeForOverallRating(r OverallRating) RatingBadge {
	if b, ok := ratingBadges[r]; ok {
		return b
	}
	return ratingBadges[RatingNoReviews]
}
