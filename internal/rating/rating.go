// Package rating keeps a product's averageRating and totalReviews in step
// with its review set by recomputing them from scratch after every change.
package rating

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stats are the derived rating fields stored on a product.
type Stats struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

// Compute returns the mean and count of ratings. The mean is 0 when there
// are no ratings and is not rounded.
func Compute(ratings []int) Stats {
	if len(ratings) == 0 {
		return Stats{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return Stats{
		AverageRating: float64(sum) / float64(len(ratings)),
		TotalReviews:  len(ratings),
	}
}

// ReviewRatingLister reads the ratings of every current review of a product.
type ReviewRatingLister interface {
	ListRatingsByProduct(ctx context.Context, productID string) ([]int, error)
}

// ProductStatsWriter stores derived rating fields on a product.
type ProductStatsWriter interface {
	UpdateRatingStats(ctx context.Context, productID string, stats Stats) error
}

// Aggregator recomputes and persists product rating stats.
type Aggregator struct {
	reviews  ReviewRatingLister
	products ProductStatsWriter
	locker   Locker
	logger   *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLocker serializes recomputes of the same product through l. Without
// it concurrent recomputes race and the last write wins.
func WithLocker(l Locker) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.locker = l
		}
	}
}

// NewAggregator creates an Aggregator.
func NewAggregator(reviews ReviewRatingLister, products ProductStatsWriter, logger *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		reviews:  reviews,
		products: products,
		locker:   NopLocker{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Recompute reads every review rating of productID, stores the resulting
// stats on the product and returns them. Errors are returned to the caller;
// nothing that happened before the call is undone.
func (a *Aggregator) Recompute(ctx context.Context, productID string) (stats Stats, err error) {
	start := time.Now()
	defer func() {
		observeRecompute(start, err)
	}()

	unlock, err := a.locker.Lock(ctx, productID)
	if err != nil {
		return Stats{}, fmt.Errorf("lock product %s for rating recompute: %w", productID, err)
	}
	defer unlock()

	ratings, err := a.reviews.ListRatingsByProduct(ctx, productID)
	if err != nil {
		return Stats{}, fmt.Errorf("list ratings of product %s: %w", productID, err)
	}

	stats = Compute(ratings)
	if err := a.products.UpdateRatingStats(ctx, productID, stats); err != nil {
		return Stats{}, fmt.Errorf("store rating stats of product %s: %w", productID, err)
	}

	a.logger.DebugContext(ctx, "product rating recomputed",
		slog.String("product_id", productID),
		slog.Float64("average_rating", stats.AverageRating),
		slog.Int("total_reviews", stats.TotalReviews),
	)
	return stats, nil
}
