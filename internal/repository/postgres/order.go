package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// orderSelect loads orders with their items aggregated into one JSONB
// column, avoiding a query per order.
const orderSelect = `
		SELECT o.id, o.user_id, o.status, o.total_amount, o.currency, o.created_at, o.updated_at,
		       COALESCE((
		           SELECT JSONB_AGG(JSONB_BUILD_OBJECT(
		                      'productId', oi.product_id,
		                      'name', oi.name,
		                      'quantity', oi.quantity,
		                      'unitPrice', oi.unit_price
		                  ) ORDER BY oi.id)
		           FROM order_items oi
		           WHERE oi.order_id = o.id
		       ), '[]'::jsonb) AS items`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "CreateOrder", orderQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		o.Status,
		o.TotalAmount,
		o.Currency,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			o.ID,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.UnitPrice,
		)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperrors.NotFound("product", item.ProductID)
			}
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	query := orderSelect + `
		FROM orders o
		WHERE o.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

// ListByUser returns a page of the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) (_ []domain.Order, _ int, err error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := orderSelect + `,
		       count(*) OVER() AS total_count
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders     []domain.Order
		totalCount int
	)
	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, totalCount, nil
}

// UpdateStatus changes an order's status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) (err error) {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

// HasCompletedPurchase reports whether the user has a completed order that
// contains the product.
func (r *OrderRepository) HasCompletedPurchase(ctx context.Context, userID, productID string) (_ bool, err error) {
	query := `
		SELECT EXISTS (
		    SELECT 1
		    FROM orders o
		    JOIN order_items oi ON oi.order_id = o.id
		    WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status = $3
		)`

	ctx, end := database.TraceQuery(ctx, "HasCompletedPurchase", query)
	defer func() { end(err) }()

	var ok bool
	if err = r.pool.QueryRow(ctx, query, userID, productID, domain.OrderStatusCompleted).Scan(&ok); err != nil {
		return false, fmt.Errorf("check completed purchase: %w", err)
	}
	return ok, nil
}

func scanOrder(row pgx.Row, extra ...any) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
	)
	dest := []any{
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.TotalAmount,
		&o.Currency,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	return &o, nil
}
