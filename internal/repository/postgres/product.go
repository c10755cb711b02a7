package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/rating"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const productColumns = `id, name, slug, description, category, brand, price, currency, stock, images,
		       average_rating, total_reviews, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product and records its initial price point in the
// same transaction.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (id, name, slug, description, category, brand, price, currency, stock, images,
		                      average_rating, total_reviews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		p.Category,
		p.Brand,
		p.Price,
		p.Currency,
		p.Stock,
		p.Images,
		p.AverageRating,
		p.TotalReviews,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	if err = insertPricePoint(ctx, tx, p.ID, p.Price, p.Currency, p.CreatedAt); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	var p domain.Product
	err = r.pool.QueryRow(ctx, query, id).Scan(productDest(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	normalizeProduct(&p)
	return &p, nil
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Brand != nil {
		conditions = append(conditions, fmt.Sprintf("brand = $%d", argIndex))
		args = append(args, *filter.Brand)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d OR brand ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("average_rating >= $%d", argIndex))
		args = append(args, *filter.MinRating)
		argIndex++
	}

	if filter.InStock {
		conditions = append(conditions, "stock > 0")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT `+productColumns+`,
		       count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		whereClause, productOrderBy(filter.Sort), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var p domain.Product
		if err = rows.Scan(append(productDest(&p), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		normalizeProduct(&p)
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// ListRelated returns other products of the same category.
func (r *ProductRepository) ListRelated(ctx context.Context, category, excludeID string, limit int) (_ []domain.Product, err error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category = $1 AND id <> $2
		ORDER BY average_rating DESC, total_reviews DESC, id
		LIMIT $3`

	ctx, end := database.TraceQuery(ctx, "ListRelatedProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, category, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err = rows.Scan(productDest(&p)...); err != nil {
			return nil, fmt.Errorf("scan related product row: %w", err)
		}
		normalizeProduct(&p)
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate related product rows: %w", err)
	}
	return products, nil
}

// Categories returns the distinct non-empty categories in name order.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "ListCategories", `
		SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
}

// Brands returns the distinct non-empty brands in name order.
func (r *ProductRepository) Brands(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "ListBrands", `
		SELECT DISTINCT brand FROM products WHERE brand <> '' ORDER BY brand`)
}

func (r *ProductRepository) distinct(ctx context.Context, op, query string) (_ []string, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query distinct values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err = rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct values: %w", err)
	}
	return values, nil
}

// Update modifies an existing product. Rating fields are left alone; they
// belong to UpdateRatingStats. When the price differs from the stored one a
// price point is appended in the same transaction.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, category = $4, brand = $5,
		    price = $6, currency = $7, stock = $8, images = $9, updated_at = $10
		WHERE id = $11`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		oldPrice    int64
		oldCurrency string
	)
	err = tx.QueryRow(ctx, `SELECT price, currency FROM products WHERE id = $1 FOR UPDATE`, p.ID).
		Scan(&oldPrice, &oldCurrency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", p.ID)
		}
		return fmt.Errorf("lock product: %w", err)
	}

	p.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, query,
		p.Name,
		p.Slug,
		p.Description,
		p.Category,
		p.Brand,
		p.Price,
		p.Currency,
		p.Stock,
		p.Images,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}

	if oldPrice != p.Price || oldCurrency != p.Currency {
		if err = insertPricePoint(ctx, tx, p.ID, p.Price, p.Currency, p.UpdatedAt); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a product, its reviews and its price history atomically.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteProduct", "DELETE FROM products WHERE id = $1")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleted, err := deleteProducts(ctx, tx, []string{id})
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return apperrors.NotFound("product", id)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// BulkDelete removes every listed product that exists, with its reviews and
// price history, in one transaction and returns the ids actually deleted.
func (r *ProductRepository) BulkDelete(ctx context.Context, ids []string) (_ []string, err error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	ctx, end := database.TraceQuery(ctx, "BulkDeleteProducts", "DELETE FROM products WHERE id = ANY($1)")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleted, err := deleteProducts(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return deleted, nil
}

func deleteProducts(ctx context.Context, tx pgx.Tx, ids []string) ([]string, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE product_id = ANY($1)`, ids); err != nil {
		return nil, fmt.Errorf("delete product reviews: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM price_history WHERE product_id = ANY($1)`, ids); err != nil {
		return nil, fmt.Errorf("delete price history: %w", err)
	}

	rows, err := tx.Query(ctx, `DELETE FROM products WHERE id = ANY($1) RETURNING id`, ids)
	if err != nil {
		return nil, fmt.Errorf("delete products: %w", err)
	}
	deleted, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect deleted product ids: %w", err)
	}
	return deleted, nil
}

// PriceHistory returns a product's price points, oldest first.
func (r *ProductRepository) PriceHistory(ctx context.Context, productID string) (_ []domain.PricePoint, err error) {
	query := `
		SELECT price, currency, recorded_at
		FROM price_history
		WHERE product_id = $1
		ORDER BY recorded_at, id`

	ctx, end := database.TraceQuery(ctx, "ListPriceHistory", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()

	points := []domain.PricePoint{}
	for rows.Next() {
		var pp domain.PricePoint
		if err = rows.Scan(&pp.Price, &pp.Currency, &pp.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		points = append(points, pp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price points: %w", err)
	}
	return points, nil
}

// UpdateRatingStats stores averageRating and totalReviews on a product.
func (r *ProductRepository) UpdateRatingStats(ctx context.Context, productID string, stats rating.Stats) (err error) {
	query := `
		UPDATE products
		SET average_rating = $1, total_reviews = $2
		WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "UpdateProductRating", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, stats.AverageRating, stats.TotalReviews, productID)
	if err != nil {
		return fmt.Errorf("update product rating: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}
	return nil
}

func insertPricePoint(ctx context.Context, tx pgx.Tx, productID string, price int64, currency string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO price_history (product_id, price, currency, recorded_at)
		VALUES ($1, $2, $3, $4)`,
		productID, price, currency, at,
	)
	if err != nil {
		return fmt.Errorf("insert price point: %w", err)
	}
	return nil
}

func productDest(p *domain.Product) []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Category,
		&p.Brand,
		&p.Price,
		&p.Currency,
		&p.Stock,
		&p.Images,
		&p.AverageRating,
		&p.TotalReviews,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func normalizeProduct(p *domain.Product) {
	if p.Images == nil {
		p.Images = []string{}
	}
}

func productOrderBy(sort string) string {
	switch sort {
	case domain.ProductSortPriceAsc:
		return "price ASC, id"
	case domain.ProductSortPriceDesc:
		return "price DESC, id"
	case domain.ProductSortRating:
		return "average_rating DESC, total_reviews DESC, id"
	case domain.ProductSortPopular:
		return "total_reviews DESC, average_rating DESC, id"
	default:
		return "created_at DESC, id"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
