package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/slug"
)

// Limits for the product detail view.
const (
	RelatedProductLimit = 6
	MaxBulkDelete       = 100
)

// ProductService implements the business logic for product operations.
type ProductService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductRepository, reviews repository.ReviewRepository, producer *event.Producer, logger *slog.Logger) *ProductService {
	return &ProductService{
		products: products,
		reviews:  reviews,
		producer: producer,
		logger:   logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Brand       string
	Price       int64
	Currency    string
	Stock       int
	Images      []string
}

// UpdateProductInput holds the parameters for updating a product. Nil
// fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Brand       *string
	Price       *int64
	Currency    *string
	Stock       *int
	Images      []string
}

// ProductDetail is the product page: the product, its latest reviews, the
// sentiment of all its reviews and related products.
type ProductDetail struct {
	Product   domain.Product    `json:"product"`
	Reviews   []domain.Review   `json:"reviews"`
	Sentiment SentimentOverview `json:"sentiment"`
	Related   []domain.Product  `json:"relatedProducts"`
}

// CreateProduct creates a product with an initial price point.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}
	if len(input.Currency) != 3 {
		return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Slug:        slug.Generate(name),
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		Brand:       strings.TrimSpace(input.Brand),
		Price:       input.Price,
		Currency:    strings.ToUpper(input.Currency),
		Stock:       input.Stock,
		Images:      input.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product", id, "get product")
	}
	return product, nil
}

// GetProductDetail assembles the product page.
func (s *ProductService) GetProductDetail(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, _, err := s.reviews.ListByProduct(ctx, id, repository.ReviewFilter{
		Sort:    domain.ReviewSortNewest,
		Page:    1,
		PerPage: DetailReviewLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	labels, err := s.reviews.ListLabelsByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list review labels: %w", err)
	}

	related := []domain.Product{}
	if product.Category != "" {
		related, err = s.products.ListRelated(ctx, product.Category, product.ID, RelatedProductLimit)
		if err != nil {
			return nil, fmt.Errorf("list related products: %w", err)
		}
	}

	return &ProductDetail{
		Product:   *product,
		Reviews:   reviews,
		Sentiment: NewSentimentOverview(labels),
		Related:   related,
	}, nil
}

// ListProducts returns products matching the filter with the total count.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if !domain.IsValidProductSort(filter.Sort) {
		filter.Sort = domain.ProductSortNewest
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, 0, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	if filter.MinRating != nil && (*filter.MinRating < 0 || *filter.MinRating > domain.MaxRating) {
		return nil, 0, apperrors.InvalidInput("min_rating must be between 0 and 5")
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// Categories returns the distinct product categories.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.products.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Brands returns the distinct product brands.
func (s *ProductService) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.products.Brands(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

// PriceHistory returns the product's price points in chronological order.
// A product without recorded history reports its current price.
func (s *ProductService) PriceHistory(ctx context.Context, id string) ([]domain.PricePoint, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	points, err := s.products.PriceHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	if len(points) == 0 {
		points = []domain.PricePoint{{
			Price:      product.Price,
			Currency:   product.Currency,
			RecordedAt: product.CreatedAt,
		}}
	}
	return points, nil
}

// UpdateProduct applies the non-nil fields of input to a product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = name
		product.Slug = slug.Generate(name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.Currency != nil {
		if len(*input.Currency) != 3 {
			return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
		}
		product.Currency = strings.ToUpper(*input.Currency)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.InvalidInput("stock must not be negative")
		}
		product.Stock = *input.Stock
	}
	if input.Images != nil {
		product.Images = input.Images
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, notFoundOr(err, "product", id, "update product")
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
	)

	return product, nil
}

// DeleteProduct removes a product together with its reviews.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return notFoundOr(err, "product", id, "delete product")
	}

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}

// BulkDeleteProducts removes the listed products and returns the ids that
// existed. Unknown ids are skipped.
func (s *ProductService) BulkDeleteProducts(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("ids must not be empty")
	}
	if len(ids) > MaxBulkDelete {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d products can be deleted at once", MaxBulkDelete))
	}

	deleted, err := s.products.BulkDelete(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("bulk delete products: %w", err)
	}

	for _, id := range deleted {
		if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "products bulk deleted",
		slog.Int("requested", len(ids)),
		slog.Int("deleted", len(deleted)),
	)

	return deleted, nil
}
