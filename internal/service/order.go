package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// MaxOrderItems bounds the number of lines in one order.
const MaxOrderItems = 50

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// OrderService implements the business logic for order operations. There
// is no payment step: placed orders are completed immediately, which is
// what makes later reviews verified purchases.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// PlaceOrder creates a completed order for userID. Every product must exist
// and share one currency; unit prices and names are captured now.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, items []OrderItemInput) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if len(items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	if len(items) > MaxOrderItems {
		return nil, apperrors.InvalidInput(fmt.Sprintf("order must contain at most %d items", MaxOrderItems))
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     make([]domain.OrderItem, 0, len(items)),
		Status:    domain.OrderStatusCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, in := range items {
		if in.Quantity < 1 {
			return nil, apperrors.InvalidInput("quantity must be at least 1")
		}

		product, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, notFoundOr(err, "product", in.ProductID, "get product")
		}

		if order.Currency == "" {
			order.Currency = product.Currency
		} else if order.Currency != product.Currency {
			return nil, apperrors.InvalidInput("all products in an order must share one currency")
		}

		order.Items = append(order.Items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  in.Quantity,
			UnitPrice: product.Price,
		})
	}
	order.CalculateTotal()

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	ordersPlacedTotal.Inc()

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int("items", len(order.Items)),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// ListOrders returns a page of the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, params pagination.Params) ([]domain.Order, int, error) {
	orders, total, err := s.orders.ListByUser(ctx, userID, params.Page, params.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder returns an order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, id, userID, role string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order", id, "get order")
	}
	if order.UserID != userID && role != domain.RoleAdmin {
		return nil, apperrors.Forbidden("not authorized to view this order")
	}
	return order, nil
}

// UpdateOrderStatus sets an order's status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput("status must be one of pending, completed, cancelled")
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, notFoundOr(err, "order", id, "update order status")
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("status", status),
	)

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order", id, "get order")
	}
	return order, nil
}

// HasCompletedPurchase reports whether the user bought the product in a
// completed order.
func (s *OrderService) HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	ok, err := s.orders.HasCompletedPurchase(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("check completed purchase: %w", err)
	}
	return ok, nil
}
