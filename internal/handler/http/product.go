package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// DefaultProductsPerPage is the catalog page size when none is requested.
const DefaultProductsPerPage = 20

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,notblank,max=255"`
	Description string   `json:"description" validate:"max=5000"`
	Category    string   `json:"category" validate:"max=100"`
	Brand       string   `json:"brand" validate:"max=100"`
	Price       int64    `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency" validate:"required,len=3"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images" validate:"max=20,dive,url"`
}

// UpdateProductRequest is the JSON request body for updating a product.
// Omitted fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,notblank,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Category    *string  `json:"category" validate:"omitempty,max=100"`
	Brand       *string  `json:"brand" validate:"omitempty,max=100"`
	Price       *int64   `json:"price" validate:"omitempty,gte=0"`
	Currency    *string  `json:"currency" validate:"omitempty,len=3"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Images      []string `json:"images" validate:"max=20,dive,url"`
}

// BulkDeleteRequest is the JSON request body for deleting several products.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,uuid"`
}

// productDetailResponse is the product page payload. Reviews carry their
// sentiment badge.
type productDetailResponse struct {
	Product   domain.Product            `json:"product"`
	Reviews   []reviewResponse          `json:"reviews"`
	Sentiment service.SentimentOverview `json:"sentiment"`
	Related   []domain.Product          `json:"relatedProducts"`
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := pagination.FromRequest(r, DefaultProductsPerPage)

	filter := repository.ProductFilter{
		Sort:    q.Get("sort"),
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := q.Get("brand"); v != "" {
		filter.Brand = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("min_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeInvalidParameter(w, r, "min_price must be a valid number")
			return
		}
		filter.MinPrice = &price
	}
	if v := q.Get("max_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeInvalidParameter(w, r, "max_price must be a valid number")
			return
		}
		filter.MaxPrice = &price
	}
	if v := q.Get("min_rating"); v != "" {
		minRating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeInvalidParameter(w, r, "min_rating must be a valid number")
			return
		}
		filter.MinRating = &minRating
	}
	if v := q.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			writeInvalidParameter(w, r, "in_stock must be true or false")
			return
		}
		filter.InStock = inStock
	}

	products, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(products, total, params))
}

// GetProduct handles GET /api/v1/products/{id}
// Returns the product page: latest reviews, sentiment and related products.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	detail, err := h.service.GetProductDetail(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	related := detail.Related
	if related == nil {
		related = []domain.Product{}
	}

	httputil.WriteData(w, http.StatusOK, productDetailResponse{
		Product:   detail.Product,
		Reviews:   toReviewResponses(detail.Reviews),
		Sentiment: detail.Sentiment,
		Related:   related,
	})
}

// Categories handles GET /api/v1/products/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// Brands handles GET /api/v1/products/brands
func (h *ProductHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.Brands(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, brands)
}

// PriceHistory handles GET /api/v1/products/{id}/price-history
func (h *ProductHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	points, err := h.service.PriceHistory(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, points)
}

// CreateProduct handles POST /api/v1/admin/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		Price:       req.Price,
		Currency:    req.Currency,
		Stock:       req.Stock,
		Images:      req.Images,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateProductRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), &service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		Price:       req.Price,
		Currency:    req.Currency,
		Stock:       req.Stock,
		Images:      req.Images,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteProducts handles POST /api/v1/admin/products/bulk-delete
func (h *ProductHandler) BulkDeleteProducts(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	deleted, err := h.service.BulkDeleteProducts(r.Context(), req.IDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]any{
		"deleted":      deleted,
		"deletedCount": len(deleted),
	})
}

// decodeRequest decodes and validates a JSON body of at most 1MB. On
// failure it writes the 400 response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, r, err)
		return false
	}
	return true
}

func writeInvalidParameter(w http.ResponseWriter, r *http.Request, message string) {
	httputil.WriteError(w, r, apperrors.InvalidParameter(message), nil)
}
