package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/models"
)

// OrderRepository persists orders and their lines. Orders are never deleted;
// cancellation is a status.
type OrderRepository struct {
	logger *zap.Logger
}

// NewOrderRepository creates a Postgres-backed order repository.
func NewOrderRepository(logger *zap.Logger) *OrderRepository {
	return &OrderRepository{logger: logger}
}

// Create inserts the order row and one row per line inside the caller's
// transaction. The delivery address is stored as a JSON snapshot, copied by
// value.
func (r *OrderRepository) Create(ctx context.Context, tx DBTX, order *models.Order) error {
	addressJSON, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, status, delivery_address, total, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		order.ID, order.BuyerID, order.Status, addressJSON,
		order.Total, order.Notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			item.ID, order.ID, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPrice, item.Subtotal,
		)
		if err != nil {
			return err
		}
	}

	r.logger.Info("order persisted",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", order.BuyerID),
		zap.Int("items", len(order.Items)),
	)

	return nil
}

// GetByID loads an order with its lines, including joined producer and
// category display fields.
func (r *OrderRepository) GetByID(ctx context.Context, db DBTX, id string) (*models.Order, error) {
	order, err := r.getOrderRow(ctx, db, id, false)
	if err != nil || order == nil {
		return order, err
	}

	items, err := r.loadItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// GetByIDForUpdate loads an order with its lines while holding a row lock on
// the order, so cancellation and status updates cannot interleave. Must run
// inside a transaction.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, tx DBTX, id string) (*models.Order, error) {
	order, err := r.getOrderRow(ctx, tx, id, true)
	if err != nil || order == nil {
		return order, err
	}

	items, err := r.loadItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *OrderRepository) getOrderRow(ctx context.Context, db DBTX, id string, forUpdate bool) (*models.Order, error) {
	query := `
		SELECT id, buyer_id, status, delivery_address, total, notes, created_at, updated_at, delivered_at
		FROM orders
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var order models.Order
	var addressJSON []byte
	var notes sql.NullString
	var deliveredAt sql.NullTime

	err := db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.BuyerID, &order.Status, &addressJSON,
		&order.Total, &notes, &order.CreatedAt, &order.UpdatedAt, &deliveredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(addressJSON, &order.DeliveryAddress); err != nil {
		return nil, err
	}
	if notes.Valid {
		order.Notes = notes.String
	}
	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}

	return &order, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, db DBTX, orderID string) ([]models.OrderItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name,
		       COALESCE(u.name, ''), COALESCE(c.name, ''),
		       oi.quantity, oi.unit_price, oi.subtotal
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		LEFT JOIN users u ON u.id = p.producer_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE oi.order_id = $1
		ORDER BY oi.product_name
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.OrderItem, 0)
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProducerName, &item.CategoryName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus sets the order's status, stamping delivered_at when the target
// is delivered. Returns ErrOrderNotFound when the id does not resolve.
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx DBTX, id string, status models.OrderStatus) error {
	now := time.Now()

	var deliveredAt *time.Time
	if status == models.OrderStatusDelivered {
		deliveredAt = &now
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3, delivered_at = COALESCE($4, delivered_at)
		WHERE id = $1
	`, id, status, now, deliveredAt)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrOrderNotFound
	}

	r.logger.Info("order status updated",
		zap.String("order_id", id),
		zap.String("status", string(status)),
	)

	return nil
}

// ListByBuyer returns the buyer's orders newest first, with the total count
// for pagination.
func (r *OrderRepository) ListByBuyer(ctx context.Context, db DBTX, buyerID string, limit, offset int) ([]*models.Order, int, error) {
	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE buyer_id = $1`, buyerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, buyer_id, status, delivery_address, total, notes, created_at, updated_at, delivered_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		var order models.Order
		var addressJSON []byte
		var notes sql.NullString
		var deliveredAt sql.NullTime

		err := rows.Scan(
			&order.ID, &order.BuyerID, &order.Status, &addressJSON,
			&order.Total, &notes, &order.CreatedAt, &order.UpdatedAt, &deliveredAt,
		)
		if err != nil {
			return nil, 0, err
		}

		if err := json.Unmarshal(addressJSON, &order.DeliveryAddress); err != nil {
			return nil, 0, err
		}
		if notes.Valid {
			order.Notes = notes.String
		}
		if deliveredAt.Valid {
			order.DeliveredAt = &deliveredAt.Time
		}

		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, db, order.ID)
		if err != nil {
			return nil, 0, err
		}
		order.Items = items
	}

	return orders, total, nil
}
