package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/rating"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/sentiment"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// Page sizes for review listings.
const (
	DefaultReviewsPerPage = 10
	DetailReviewLimit     = 50
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	ProductID  string
	UserID     string
	AuthorName string
	Rating     int
	Text       string
}

// UpdateReviewInput holds the parameters for editing a review.
type UpdateReviewInput struct {
	ReviewID string
	UserID   string
	Rating   int
	Text     string
}

// SentimentOverview is a product's sentiment summary with the display badge
// of its overall rating.
type SentimentOverview struct {
	sentiment.Summary
	Badge sentiment.RatingBadge `json:"badge"`
}

// NewSentimentOverview summarizes labels and attaches the matching badge.
func NewSentimentOverview(labels []sentiment.Label) SentimentOverview {
	summary := sentiment.Summarize(labels)
	return SentimentOverview{
		Summary: summary,
		Badge:   sentiment.BadgeForOverallRating(summary.OverallRating),
	}
}

// PurchaseVerifier decides whether a review is a verified purchase.
// *OrderService satisfies it.
type PurchaseVerifier interface {
	HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error)
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	reviews    repository.ReviewRepository
	products   repository.ProductRepository
	purchases  PurchaseVerifier
	aggregator *rating.Aggregator
	classifier *sentiment.Classifier
	producer   *event.Producer
	logger     *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	purchases PurchaseVerifier,
	aggregator *rating.Aggregator,
	classifier *sentiment.Classifier,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		products:   products,
		purchases:  purchases,
		aggregator: aggregator,
		classifier: classifier,
		producer:   producer,
		logger:     logger,
	}
}

// CreateReview stores a new review of an existing product, labels its text,
// marks it as a verified purchase when the user has a completed order
// containing the product, and refreshes the product's rating.
//
// review.created is published once the row is stored and before the rating
// refresh, so a failed refresh returns an error for a review whose event has
// already gone out. Consumers treat the event as the source of truth.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.UserID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	text, err := validateReviewContent(input.Rating, input.Text)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, notFoundOr(err, "product", input.ProductID, "get product")
	}

	verified, err := s.purchases.HasCompletedPurchase(ctx, input.UserID, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("verify purchase: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:               uuid.New().String(),
		ProductID:        input.ProductID,
		UserID:           input.UserID,
		AuthorName:       input.AuthorName,
		Rating:           input.Rating,
		Text:             text,
		SentimentLabel:   s.classify(text),
		VerifiedPurchase: verified,
		HelpfulVoters:    []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("user_id", review.UserID),
		slog.String("sentiment", string(review.SentimentLabel)),
		slog.Bool("verified_purchase", review.VerifiedPurchase),
	)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logPublishError(ctx, "review.created", err, slog.String("review_id", review.ID))
	}

	if err := s.recompute(ctx, review.ProductID); err != nil {
		return nil, err
	}

	return review, nil
}

// GetReview retrieves a review by its ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "review", id, "get review")
	}
	return review, nil
}

// ListReviews returns a page of a product's reviews. Unknown sort orders
// fall back to newest first.
func (s *ReviewService) ListReviews(ctx context.Context, productID string, params pagination.Params, sort string) ([]domain.Review, int, error) {
	if !domain.IsValidReviewSort(sort) {
		sort = domain.ReviewSortNewest
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, 0, notFoundOr(err, "product", productID, "get product")
	}

	reviews, total, err := s.reviews.ListByProduct(ctx, productID, repository.ReviewFilter{
		Sort:    sort,
		Page:    params.Page,
		PerPage: params.PerPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// GetSentiment summarizes the sentiment of every review of a product.
func (s *ReviewService) GetSentiment(ctx context.Context, productID string) (*SentimentOverview, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, notFoundOr(err, "product", productID, "get product")
	}

	labels, err := s.reviews.ListLabelsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list review labels: %w", err)
	}

	overview := NewSentimentOverview(labels)
	return &overview, nil
}

// UpdateReview lets the author change a review's rating and text. The text
// is relabeled and the product rating refreshed.
func (s *ReviewService) UpdateReview(ctx context.Context, input *UpdateReviewInput) (*domain.Review, error) {
	text, err := validateReviewContent(input.Rating, input.Text)
	if err != nil {
		return nil, err
	}

	review, err := s.GetReview(ctx, input.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != input.UserID {
		return nil, apperrors.Forbidden("only the author can edit this review")
	}

	review.Rating = input.Rating
	review.Text = text
	review.SentimentLabel = s.classify(text)

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("sentiment", string(review.SentimentLabel)),
	)

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logPublishError(ctx, "review.updated", err, slog.String("review_id", review.ID))
	}

	if err := s.recompute(ctx, review.ProductID); err != nil {
		return nil, err
	}

	return review, nil
}

// DeleteReview removes a review. Only its author or an admin may do so.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID, role string) error {
	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID && role != domain.RoleAdmin {
		return apperrors.Forbidden("only the author or an admin can delete this review")
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("product_id", review.ProductID),
		slog.String("deleted_by", userID),
	)

	if err := s.producer.PublishReviewDeleted(ctx, review, userID); err != nil {
		s.logPublishError(ctx, "review.deleted", err, slog.String("review_id", reviewID))
	}

	return s.recompute(ctx, review.ProductID)
}

// MarkHelpful records the user's helpful vote and returns the review's new
// helpful count. A second vote by the same user is an ALREADY_VOTED conflict.
func (s *ReviewService) MarkHelpful(ctx context.Context, reviewID, userID string) (int, error) {
	count, err := s.reviews.AddHelpfulVote(ctx, reviewID, userID)
	if err != nil {
		return 0, notFoundOr(err, "review", reviewID, "add helpful vote")
	}

	helpfulVotesTotal.Inc()
	s.logger.InfoContext(ctx, "review marked helpful",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
		slog.Int("helpful_count", count),
	)
	return count, nil
}

// ModerateReview sets or clears a review's moderation flag. Ratings are not
// affected.
func (s *ReviewService) ModerateReview(ctx context.Context, reviewID string, flagged bool) (*domain.Review, error) {
	if err := s.reviews.SetFlagged(ctx, reviewID, flagged); err != nil {
		return nil, notFoundOr(err, "review", reviewID, "moderate review")
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", reviewID),
		slog.Bool("flagged", flagged),
	)

	return s.GetReview(ctx, reviewID)
}

func (s *ReviewService) classify(text string) sentiment.Label {
	label := s.classifier.Classify(text)
	reviewsClassifiedTotal.WithLabelValues(string(label)).Inc()
	return label
}

// recompute refreshes the product's rating and announces the new values.
func (s *ReviewService) recompute(ctx context.Context, productID string) error {
	stats, err := s.aggregator.Recompute(ctx, productID)
	if err != nil {
		return fmt.Errorf("recompute product rating: %w", err)
	}

	if err := s.producer.PublishProductRatingUpdated(ctx, productID, stats); err != nil {
		s.logPublishError(ctx, "product.rating_updated", err, slog.String("product_id", productID))
	}
	return nil
}

func (s *ReviewService) logPublishError(ctx context.Context, eventType string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("event_type", eventType), slog.String("error", err.Error()))
	s.logger.ErrorContext(ctx, "failed to publish event", attrs...)
}

// validateReviewContent checks rating and text and returns the trimmed text.
func validateReviewContent(rating int, text string) (string, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return "", apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.InvalidInput("review text is required")
	}
	if len(text) > domain.MaxReviewTextLength {
		return "", apperrors.InvalidInput(fmt.Sprintf("review text must be at most %d bytes", domain.MaxReviewTextLength))
	}
	return text, nil
}

// notFoundOr turns a bare ErrNotFound into a typed 404 for resource id and
// wraps anything else with op.
func notFoundOr(err error, resource, id, op string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound(resource, id)
	}
	return fmt.Errorf("%s: %w", op, err)
}
