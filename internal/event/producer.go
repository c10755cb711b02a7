// Package event publishes storefront domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/rating"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topic constants for storefront domain events.
const (
	TopicReviewCreated        = "storefront.review.created"
	TopicReviewUpdated        = "storefront.review.updated"
	TopicReviewDeleted        = "storefront.review.deleted"
	TopicProductCreated       = "storefront.product.created"
	TopicProductUpdated       = "storefront.product.updated"
	TopicProductDeleted       = "storefront.product.deleted"
	TopicProductRatingUpdated = "storefront.product.rating_updated"
	TopicOrderCreated         = "storefront.order.created"
)

// Aggregate types. Review events use the product as aggregate so that all
// events of one product land on the same partition in order.
const (
	AggregateTypeProduct = "product"
	AggregateTypeOrder   = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// ReviewData is the payload for review.created and review.updated events.
type ReviewData struct {
	ReviewID         string `json:"review_id"`
	ProductID        string `json:"product_id"`
	UserID           string `json:"user_id"`
	Rating           int    `json:"rating"`
	SentimentLabel   string `json:"sentiment_label"`
	VerifiedPurchase bool   `json:"verified_purchase"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	DeletedBy string `json:"deleted_by"`
}

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Stock    int    `json:"stock"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// RatingUpdatedData is the payload for a product.rating_updated event.
type RatingUpdatedData struct {
	ProductID     string  `json:"product_id"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// OrderItemData is one line of an order.created payload.
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount int64           `json:"total_amount"`
	Currency    string          `json:"currency"`
	Items       []OrderItemData `json:"items"`
}

// Producer publishes storefront domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. A nil publisher drops every
// event, which is how the service runs with Kafka disabled.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, review.ProductID, AggregateTypeProduct, reviewData(review))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, review.ProductID, AggregateTypeProduct, reviewData(review))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review, deletedBy string) error {
	data := ReviewDeletedData{
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		DeletedBy: deletedBy,
	}
	return p.publish(ctx, TopicReviewDeleted, review.ProductID, AggregateTypeProduct, data)
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, id, AggregateTypeProduct, ProductDeletedData{ID: id})
}

// PublishProductRatingUpdated publishes a product.rating_updated event.
func (p *Producer) PublishProductRatingUpdated(ctx context.Context, productID string, stats rating.Stats) error {
	data := RatingUpdatedData{
		ProductID:     productID,
		AverageRating: stats.AverageRating,
		TotalReviews:  stats.TotalReviews,
	}
	return p.publish(ctx, TopicProductRatingUpdated, productID, AggregateTypeProduct, data)
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItemData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	data := OrderCreatedData{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		Items:       items,
	}
	return p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p.publisher == nil {
		return nil
	}

	ev, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		ev.WithCorrelationID(id)
	}
	if userID := logger.UserIDFromContext(ctx); userID != "" {
		ev.WithMetadata("actor_id", userID)
	}

	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{
		ReviewID:         r.ID,
		ProductID:        r.ProductID,
		UserID:           r.UserID,
		Rating:           r.Rating,
		SentimentLabel:   string(r.SentimentLabel),
		VerifiedPurchase: r.VerifiedPurchase,
	}
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:       p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Category: p.Category,
		Brand:    p.Brand,
		Price:    p.Price,
		Currency: p.Currency,
		Stock:    p.Stock,
	}
}
