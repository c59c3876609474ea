package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/safar/agrocart/internal/checkout"
	"github.com/safar/agrocart/internal/database"
	"github.com/safar/agrocart/internal/models"
)

// OrderHistory keeps placed orders in the orders table. The full order is
// stored as a JSONB snapshot next to the columns used for lookups.
type OrderHistory struct {
	db *sql.DB
}

func NewOrderHistory(db *sql.DB) *OrderHistory {
	return &OrderHistory{db: db}
}

func (h *OrderHistory) Append(ctx context.Context, order models.Order) error {
	snapshot, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	return database.WithRetry(ctx, h.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, buyer_id, payment_id, payment_order_id, status, total_amount, snapshot, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			order.ID, order.Buyer.ID, order.PaymentID, order.PaymentOrderID, order.Status,
			order.Totals.Total, snapshot, order.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
}

func (h *OrderHistory) List(ctx context.Context, q models.OrderQuery) (models.OrderPage, error) {
	cursor, hasCursor, err := models.DecodeCursor(q.Cursor)
	if err != nil {
		return models.OrderPage{}, fmt.Errorf("%w: %v", checkout.ErrInvalidCursor, err)
	}

	var before any
	if hasCursor {
		before = cursor.CreatedAt
	}
	limit := q.PageSize()

	query := `
		SELECT id, snapshot, created_at
		FROM orders
		WHERE ($1::text = '' OR buyer_id = $1)
		  AND ($2::timestamptz IS NULL OR (created_at, id) < ($2, $3))
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := h.db.QueryContext(ctx, query, q.BuyerID, before, cursor.ID, limit+1)
	if err != nil {
		return models.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var (
			id        string
			snapshot  []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &snapshot, &createdAt); err != nil {
			return models.OrderPage{}, fmt.Errorf("scan order: %w", err)
		}

		var order models.Order
		if err := json.Unmarshal(snapshot, &order); err != nil {
			return models.OrderPage{}, fmt.Errorf("decode order %s: %w", id, err)
		}
		// The column has microsecond precision; cursors must use it.
		order.CreatedAt = createdAt
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return models.OrderPage{}, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = models.EncodeCursor(models.OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return models.OrderPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
