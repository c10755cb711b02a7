// Package repository declares the persistence contracts the storefront
// services depend on. Implementations live in the postgres and redis
// subpackages.
package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/rating"
	"github.com/utafrali/storefront/internal/sentiment"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Category  *string
	Brand     *string
	Search    *string
	MinPrice  *int64
	MaxPrice  *int64
	MinRating *float64
	InStock   bool
	Sort      string
	Page      int
	PerPage   int
}

// ReviewFilter defines pagination and ordering for a product's reviews.
type ReviewFilter struct {
	Sort    string
	Page    int
	PerPage int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a product and its initial price point.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching the filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// ListRelated returns up to limit other products of the same category,
	// best rated first.
	ListRelated(ctx context.Context, category, excludeID string, limit int) ([]domain.Product, error)

	// Categories returns the distinct product categories, sorted.
	Categories(ctx context.Context) ([]string, error)

	// Brands returns the distinct product brands, sorted.
	Brands(ctx context.Context) ([]string, error)

	// Update modifies a product. A changed price appends a price point.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product together with its reviews and price history.
	Delete(ctx context.Context, id string) error

	// BulkDelete removes the given products and returns the ids that existed.
	BulkDelete(ctx context.Context, ids []string) ([]string, error)

	// PriceHistory returns a product's price points, oldest first.
	PriceHistory(ctx context.Context, productID string) ([]domain.PricePoint, error)

	// UpdateRatingStats stores the derived rating fields of a product.
	UpdateRatingStats(ctx context.Context, productID string, stats rating.Stats) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByProduct returns a page of a product's reviews and the total count.
	ListByProduct(ctx context.Context, productID string, filter ReviewFilter) ([]domain.Review, int, error)

	// ListLabelsByProduct returns the sentiment label of every review of a product.
	ListLabelsByProduct(ctx context.Context, productID string) ([]sentiment.Label, error)

	// ListRatingsByProduct returns the star rating of every review of a product.
	ListRatingsByProduct(ctx context.Context, productID string) ([]int, error)

	// Update stores a review's rating, text and sentiment label.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review.
	Delete(ctx context.Context, id string) error

	// AddHelpfulVote records userID's helpful vote and returns the new count.
	// It returns apperrors.ErrConflict when the user already voted.
	AddHelpfulVote(ctx context.Context, reviewID, userID string) (int, error)

	// SetFlagged sets the moderation flag of a review.
	SetFlagged(ctx context.Context, id string, flagged bool) error
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts an order and its items atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser returns a page of a user's orders, newest first, and the total count.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error)

	// UpdateStatus changes an order's status.
	UpdateStatus(ctx context.Context, id, status string) error

	// HasCompletedPurchase reports whether userID has a completed order
	// containing productID.
	HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error)
}
