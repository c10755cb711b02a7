package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/rating"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/sentiment"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const reviewColumns = `id, product_id, user_id, author_name, rating, text, sentiment_label,
		       verified_purchase, helpful_count, helpful_voters, flagged, created_at, updated_at`

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

var (
	_ repository.ReviewRepository = (*ReviewRepository)(nil)
	_ rating.ReviewRatingLister   = (*ReviewRepository)(nil)
)

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new product review into the database.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (id, product_id, user_id, author_name, rating, text, sentiment_label,
		                     verified_purchase, helpful_count, flagged, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.AuthorName,
		review.Rating,
		review.Text,
		string(review.SentimentLabel),
		review.VerifiedPurchase,
		review.HelpfulCount,
		review.Flagged,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("product", review.ProductID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetReview", query)
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return rv, nil
}

// ListByProduct returns paginated reviews for a given product along with the total count.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, filter repository.ReviewFilter) (_ []domain.Review, _ int, err error) {
	limit := filter.PerPage
	if limit <= 0 {
		limit = 10
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := `
		SELECT ` + reviewColumns + `,
		       count(*) OVER() AS total_count
		FROM reviews
		WHERE product_id = $1
		ORDER BY ` + reviewOrderBy(filter.Sort) + `
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		rv, err := scanReview(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// ListLabelsByProduct returns the sentiment label of every review of a product.
func (r *ReviewRepository) ListLabelsByProduct(ctx context.Context, productID string) (_ []sentiment.Label, err error) {
	query := `SELECT sentiment_label FROM reviews WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "ListReviewLabels", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list review labels: %w", err)
	}
	defer rows.Close()

	labels := []sentiment.Label{}
	for rows.Next() {
		var l string
		if err = rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan review label: %w", err)
		}
		labels = append(labels, sentiment.Label(l))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review labels: %w", err)
	}
	return labels, nil
}

// ListRatingsByProduct returns the rating of every review of a product.
func (r *ReviewRepository) ListRatingsByProduct(ctx context.Context, productID string) (_ []int, err error) {
	query := `SELECT rating FROM reviews WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "ListReviewRatings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list review ratings: %w", err)
	}
	defer rows.Close()

	ratings := []int{}
	for rows.Next() {
		var v int
		if err = rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan review rating: %w", err)
		}
		ratings = append(ratings, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review ratings: %w", err)
	}
	return ratings, nil
}

// Update stores a review's rating, text and sentiment label.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) (err error) {
	query := `
		UPDATE reviews
		SET rating = $1, text = $2, sentiment_label = $3, updated_at = $4
		WHERE id = $5`

	ctx, end := database.TraceQuery(ctx, "UpdateReview", query)
	defer func() { end(err) }()

	review.UpdatedAt = time.Now().UTC()

	ct, err := r.pool.Exec(ctx, query,
		review.Rating,
		review.Text,
		string(review.SentimentLabel),
		review.UpdatedAt,
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}
	return nil
}

// Delete removes a review by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteReview", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

// AddHelpfulVote appends userID to the review's voters and bumps the count
// in one statement, so a user can never be counted twice.
func (r *ReviewRepository) AddHelpfulVote(ctx context.Context, reviewID, userID string) (_ int, err error) {
	query := `
		UPDATE reviews
		SET helpful_voters = array_append(helpful_voters, $2::text),
		    helpful_count = helpful_count + 1
		WHERE id = $1 AND NOT ($2::text = ANY(helpful_voters))
		RETURNING helpful_count`

	ctx, end := database.TraceQuery(ctx, "AddHelpfulVote", query)
	defer func() { end(err) }()

	var count int
	err = r.pool.QueryRow(ctx, query, reviewID, userID).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("add helpful vote: %w", err)
	}

	var exists bool
	if err = r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)`, reviewID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check review exists: %w", err)
	}
	if !exists {
		return 0, apperrors.NotFound("review", reviewID)
	}
	return 0, apperrors.AlreadyVoted()
}

// SetFlagged sets the moderation flag of a review.
func (r *ReviewRepository) SetFlagged(ctx context.Context, id string, flagged bool) (err error) {
	query := `UPDATE reviews SET flagged = $1, updated_at = $2 WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "FlagReview", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, flagged, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("flag review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

// scanReview reads one review row. extra receives trailing columns such as
// a window count.
func scanReview(row pgx.Row, extra ...any) (*domain.Review, error) {
	var (
		rv    domain.Review
		label string
	)
	dest := []any{
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.AuthorName,
		&rv.Rating,
		&rv.Text,
		&label,
		&rv.VerifiedPurchase,
		&rv.HelpfulCount,
		&rv.HelpfulVoters,
		&rv.Flagged,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	rv.SentimentLabel = sentiment.Label(label)
	if rv.HelpfulVoters == nil {
		rv.HelpfulVoters = []string{}
	}
	return &rv, nil
}

func reviewOrderBy(sort string) string {
	switch sort {
	case domain.ReviewSortOldest:
		return "created_at ASC, id"
	case domain.ReviewSortHighest:
		return "rating DESC, created_at DESC, id"
	case domain.ReviewSortLowest:
		return "rating ASC, created_at DESC, id"
	case domain.ReviewSortHelpful:
		return "helpful_count DESC, created_at DESC, id"
	default:
		return "created_at DESC, id"
	}
}
