package domain

import (
	"time"

	"github.com/utafrali/storefront/internal/sentiment"
)

// Review limits.
const (
	MinRating           = 1
	MaxRating           = 5
	MaxReviewTextLength = 5000
)

// Review is a user's rating and text for one product. SentimentLabel is
// derived from Text on every write. VerifiedPurchase is fixed at creation.
type Review struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"productId"`
	UserID           string          `json:"userId"`
	AuthorName       string          `json:"userName"`
	Rating           int             `json:"rating"`
	Text             string          `json:"text"`
	SentimentLabel   sentiment.Label `json:"sentimentLabel"`
	VerifiedPurchase bool            `json:"verifiedPurchase"`
	HelpfulCount     int             `json:"helpfulCount"`
	HelpfulVoters    []string        `json:"-"`
	Flagged          bool            `json:"flagged"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Review list sort orders.
const (
	ReviewSortNewest  = "newest"
	ReviewSortOldest  = "oldest"
	ReviewSortHighest = "highest"
	ReviewSortLowest  = "lowest"
	ReviewSortHelpful = "helpful"
)

// IsValidReviewSort reports whether s is a known review sort order.
func IsValidReviewSort(s string) bool {
	switch s {
	case ReviewSortNewest, ReviewSortOldest, ReviewSortHighest, ReviewSortLowest, ReviewSortHelpful:
		return true
	}
	return false
}
