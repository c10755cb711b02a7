package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/rating"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var productCols = []string{
	"id", "name", "slug", "description", "category", "brand", "price", "currency", "stock", "images",
	"average_rating", "total_reviews", "created_at", "updated_at",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:            "prod-1",
		Name:          "Desk Lamp",
		Slug:          "desk-lamp",
		Description:   "A sturdy lamp",
		Category:      "lighting",
		Brand:         "Lumo",
		Price:         4999,
		Currency:      "USD",
		Stock:         12,
		Images:        []string{"https://cdn.example.com/lamp.jpg"},
		AverageRating: 4.5,
		TotalReviews:  2,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func productRow(p domain.Product) []any {
	return []any{
		p.ID, p.Name, p.Slug, p.Description, p.Category, p.Brand, p.Price, p.Currency, p.Stock, p.Images,
		p.AverageRating, p.TotalReviews, p.CreatedAt, p.UpdatedAt,
	}
}

func TestProductRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Slug, p.Description, p.Category, p.Brand, p.Price, p.Currency, p.Stock, p.Images,
			p.AverageRating, p.TotalReviews, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO price_history").
		WithArgs(p.ID, p.Price, p.Currency, p.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), &p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_DuplicateSlug(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Slug, p.Description, p.Category, p.Brand, p.Price, p.Currency, p.Stock, p.Images,
			p.AverageRating, p.TotalReviews, p.CreatedAt, p.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(p)...))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_FiltersAndSort(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	filter := repository.ProductFilter{
		Category:  strPtr("lighting"),
		Search:    strPtr("50%"),
		MinPrice:  int64Ptr(1000),
		MinRating: float64Ptr(4),
		InStock:   true,
		Sort:      domain.ProductSortPriceDesc,
		Page:      2,
		PerPage:   5,
	}

	rows := pgxmock.NewRows(append(productCols, "total_count")).
		AddRow(append(productRow(p), 6)...)

	mock.ExpectQuery(`WHERE category = \$1 AND \(name ILIKE \$2 (.+)\) AND price >= \$3 AND average_rating >= \$4 AND stock > 0 ORDER BY price DESC, id LIMIT \$5 OFFSET \$6`).
		WithArgs("lighting", `%50\%%`, int64(1000), float64(4), 5, 5).
		WillReturnRows(rows)

	products, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, products, 1)
	assert.Equal(t, p.ID, products[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_EmptyIsNotNil(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("ORDER BY created_at DESC, id LIMIT").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(append(productCols, "total_count")))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListRelated(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()
	p.ID = "prod-2"
	p.Images = nil

	mock.ExpectQuery("WHERE category = (.+) AND id <>").
		WithArgs("lighting", "prod-1", 6).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(p)...))

	related, err := repo.ListRelated(context.Background(), "lighting", "prod-1", 6)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "prod-2", related[0].ID)
	assert.Equal(t, []string{}, related[0].Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CategoriesAndBrands(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT DISTINCT category").
		WillReturnRows(pgxmock.NewRows([]string{"category"}).AddRow("audio").AddRow("lighting"))
	mock.ExpectQuery("SELECT DISTINCT brand").
		WillReturnRows(pgxmock.NewRows([]string{"brand"}))

	cats, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"audio", "lighting"}, cats)

	brands, err := repo.Brands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, brands)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_PriceChangeAppendsPoint(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()
	p.Price = 3999

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price, currency FROM products WHERE id = (.+) FOR UPDATE").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows([]string{"price", "currency"}).AddRow(int64(4999), "USD"))
	mock.ExpectExec("UPDATE products SET name").
		WithArgs(p.Name, p.Slug, p.Description, p.Category, p.Brand, p.Price, p.Currency, p.Stock, p.Images,
			pgxmock.AnyArg(), p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO price_history").
		WithArgs(p.ID, int64(3999), "USD", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), &p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_SamePriceNoPoint(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price, currency FROM products").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows([]string{"price", "currency"}).AddRow(p.Price, p.Currency))
	mock.ExpectExec("UPDATE products SET name").
		WithArgs(p.Name, p.Slug, p.Description, p.Category, p.Brand, p.Price, p.Currency, p.Stock, p.Images,
			pgxmock.AnyArg(), p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), &p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT price, currency FROM products").
		WithArgs(p.ID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &p)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_CascadesReviews(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	ids := []string{"prod-1"}
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reviews WHERE product_id").WithArgs(ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("DELETE FROM price_history WHERE product_id").WithArgs(ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectQuery("DELETE FROM products WHERE id").WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("prod-1"))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "prod-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_NotFoundRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	ids := []string{"missing"}
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reviews").WithArgs(ids).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM price_history").WithArgs(ids).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("DELETE FROM products").WithArgs(ids).WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_BulkDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	ids := []string{"prod-1", "prod-2", "gone"}
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reviews").WithArgs(ids).WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectExec("DELETE FROM price_history").WithArgs(ids).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectQuery("DELETE FROM products").WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("prod-1").AddRow("prod-2"))
	mock.ExpectCommit()

	deleted, err := repo.BulkDelete(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-1", "prod-2"}, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_BulkDelete_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	deleted, err := repo.BulkDelete(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_PriceHistory(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("FROM price_history WHERE product_id").
		WithArgs("prod-1").
		WillReturnRows(pgxmock.NewRows([]string{"price", "currency", "recorded_at"}).
			AddRow(int64(4999), "USD", now).
			AddRow(int64(3999), "USD", now.Add(24*time.Hour)))

	points, err := repo.PriceHistory(context.Background(), "prod-1")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(3999), points[1].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateRatingStats(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products SET average_rating").
		WithArgs(3.5, 4, "prod-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE products SET average_rating").
		WithArgs(0.0, 0, "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.UpdateRatingStats(context.Background(), "prod-1", rating.Stats{AverageRating: 3.5, TotalReviews: 4}))

	err := repo.UpdateRatingStats(context.Background(), "gone", rating.Stats{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_QueryError(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT DISTINCT category").WillReturnError(errors.New("connection reset"))

	_, err := repo.Categories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query distinct values")
	assert.NoError(t, mock.ExpectationsWereMet())
}
