// Command seed populates an empty storefront database with a demo catalog,
// completed orders and labeled reviews. It goes through the same services
// as the HTTP API so product ratings, price history and verified purchases
// are produced exactly as in production.
//
// Run: go run ./cmd/seed -products-per-category 8 -shoppers 40
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/rating"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/internal/sentiment"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/migrations"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/logger"
)

type options struct {
	perCategory int
	shoppers    int
	seed        uint64
}

func main() {
	var opts options
	flag.IntVar(&opts.perCategory, "products-per-category", 5, "products generated for each category")
	flag.IntVar(&opts.shoppers, "shoppers", 24, "number of shoppers placing orders and writing reviews")
	flag.Uint64Var(&opts.seed, "seed", 42, "random seed, equal seeds give equal catalogs")
	flag.Parse()

	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, log *slog.Logger) error {
	if opts.perCategory < 1 || opts.shoppers < 1 {
		return fmt.Errorf("products-per-category and shoppers must be positive")
	}

	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: cfg.DBMaxConnLifetime(),
		MaxConnIdleTime: cfg.DBMaxConnIdleTime(),
	}, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	// Seeding publishes no domain events.
	producer := event.NewProducer(nil, log)
	aggregator := rating.NewAggregator(reviewRepo, productRepo, log)

	s := &seeder{
		products: service.NewProductService(productRepo, reviewRepo, producer, log),
		orders:   service.NewOrderService(orderRepo, productRepo, producer, log),
		logger:   log,
	}
	s.reviews = service.NewReviewService(reviewRepo, productRepo, s.orders, aggregator, sentiment.NewClassifier(nil), producer, log)

	return s.seed(ctx, rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15)), opts)
}

type seeder struct {
	products *service.ProductService
	orders   *service.OrderService
	reviews  *service.ReviewService
	logger   *slog.Logger
}

func (s *seeder) seed(ctx context.Context, rng *rand.Rand, opts options) error {
	_, total, err := s.products.ListProducts(ctx, repository.ProductFilter{Page: 1, PerPage: 1})
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if total > 0 {
		s.logger.Info("catalog is not empty, nothing to seed", slog.Int("products", total))
		return nil
	}

	inputs := buildProducts(rng, opts.perCategory)
	productIDs := make([]string, 0, len(inputs))
	for i := range inputs {
		p, err := s.products.CreateProduct(ctx, &inputs[i])
		if err != nil {
			return fmt.Errorf("create product %q: %w", inputs[i].Name, err)
		}
		productIDs = append(productIDs, p.ID)
	}
	s.logger.Info("products created", slog.Int("count", len(productIDs)))

	var orderCount, reviewCount int
	labels := make(map[sentiment.Label]int)
	for i, sh := range shoppers(opts.shoppers) {
		items := orderItems(rng, productIDs)

		// Every third shopper only browses, so their reviews are unverified.
		if i%3 != 2 {
			if _, err := s.orders.PlaceOrder(ctx, sh.id, items); err != nil {
				return fmt.Errorf("place order for %s: %w", sh.name, err)
			}
			orderCount++
		}

		for _, item := range items {
			tmpl, stars := pickReview(rng)
			review, err := s.reviews.CreateReview(ctx, &service.CreateReviewInput{
				ProductID:  item.ProductID,
				UserID:     sh.id,
				AuthorName: sh.name,
				Rating:     stars,
				Text:       tmpl.text,
			})
			if err != nil {
				return fmt.Errorf("create review for %s: %w", sh.name, err)
			}
			reviewCount++
			labels[review.SentimentLabel]++
		}
	}

	s.logger.Info("seed complete",
		slog.Int("products", len(productIDs)),
		slog.Int("orders", orderCount),
		slog.Int("reviews", reviewCount),
		slog.Int("positive", labels[sentiment.Positive]),
		slog.Int("neutral", labels[sentiment.Neutral]),
		slog.Int("negative", labels[sentiment.Negative]),
	)
	return nil
}
