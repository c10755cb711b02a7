package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ServiceName labels request metrics and server spans.
const ServiceName = "storefront"

// catalogCacheSeconds is the Cache-Control max-age of the category and
// brand listings.
const catalogCacheSeconds = 300

// RouterConfig carries the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	// TokenValidator authenticates bearer tokens on customer and admin routes.
	TokenValidator middleware.TokenValidator
	// RateLimiter throttles review and order writes per client. Nil disables it.
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	productService *service.ProductService,
	reviewService *service.ReviewService,
	orderService *service.OrderService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	productHandler := NewProductHandler(productService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)
	orderHandler := NewOrderHandler(orderService, logger)

	authenticate := middleware.Auth(cfg.TokenValidator)
	limitWrites := func(next http.Handler) http.Handler {
		if cfg.RateLimiter == nil {
			return next
		}
		return cfg.RateLimiter.Middleware(next)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.With(middleware.CacheControl(catalogCacheSeconds)).Get("/categories", productHandler.Categories)
			r.With(middleware.CacheControl(catalogCacheSeconds)).Get("/brands", productHandler.Brands)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.GetProduct)
				r.Get("/price-history", productHandler.PriceHistory)
				r.Get("/reviews", reviewHandler.ListReviews)
				r.Get("/sentiment", reviewHandler.GetSentiment)
				r.With(authenticate, limitWrites).Post("/reviews", reviewHandler.CreateReview)
			})
		})

		// Customer endpoints
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/reviews/{id}", func(r chi.Router) {
				r.With(limitWrites).Put("/", reviewHandler.UpdateReview)
				r.Delete("/", reviewHandler.DeleteReview)
				r.With(limitWrites).Post("/helpful", reviewHandler.MarkHelpful)
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(limitWrites).Post("/", orderHandler.PlaceOrder)
				r.Get("/", orderHandler.ListOrders)
				r.Get("/{id}", orderHandler.GetOrder)
			})
		})

		// Admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(middleware.RoleAdmin))

			r.Post("/products", productHandler.CreateProduct)
			r.Post("/products/bulk-delete", productHandler.BulkDeleteProducts)
			r.Put("/products/{id}", productHandler.UpdateProduct)
			r.Delete("/products/{id}", productHandler.DeleteProduct)
			r.Put("/reviews/{id}/moderate", reviewHandler.ModerateReview)
			r.Put("/orders/{id}/status", orderHandler.UpdateOrderStatus)
		})
	})

	return r
}
