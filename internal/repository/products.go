package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/models"
)

// ProductRepository reads the product catalog and applies stock deltas.
type ProductRepository struct {
	logger *zap.Logger
}

// NewProductRepository creates a Postgres-backed product repository.
func NewProductRepository(logger *zap.Logger) *ProductRepository {
	return &ProductRepository{logger: logger}
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	CategoryID string
	ProducerID string
	Search     string
	Limit      int
	Offset     int
}

const productColumns = `
	p.id, p.producer_id, u.name, p.category_id, c.name, p.name, p.description,
	p.price, p.discount_percent, p.promotion_active, p.stock_quantity, p.active,
	p.created_at, p.updated_at
`

// List returns active products matching the filter plus the total match count.
func (r *ProductRepository) List(ctx context.Context, db DBTX, filter ProductFilter) ([]*models.Product, int, error) {
	where := " WHERE p.active = TRUE"
	args := make([]any, 0, 5)

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += " AND p.category_id = $" + strconv.Itoa(len(args))
	}
	if filter.ProducerID != "" {
		args = append(args, filter.ProducerID)
		where += " AND p.producer_id = $" + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += " AND p.name ILIKE $" + strconv.Itoa(len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM products p" + where
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + productColumns + `
		FROM products p
		JOIN users u ON u.id = p.producer_id
		JOIN categories c ON c.id = p.category_id` + where +
		" ORDER BY p.created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetByID returns a single product or nil when it does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, db DBTX, id string) (*models.Product, error) {
	query := "SELECT " + productColumns + `
		FROM products p
		JOIN users u ON u.id = p.producer_id
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`

	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanProduct(rows)
}

// SnapshotForUpdate reads the catalog state of the given products under row
// locks, so a concurrent checkout cannot decrement stock between this read and
// the write that follows in the same transaction. The discount percent is
// resolved to zero when the promotion is inactive.
func (r *ProductRepository) SnapshotForUpdate(ctx context.Context, tx DBTX, ids []string) (map[string]models.ProductSnapshot, error) {
	query := `
		SELECT id, name, price,
		       CASE WHEN promotion_active THEN discount_percent ELSE 0 END,
		       stock_quantity, active
		FROM products
		WHERE id = ANY($1)
		FOR UPDATE
	`

	rows, err := tx.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make(map[string]models.ProductSnapshot, len(ids))
	for rows.Next() {
		var s models.ProductSnapshot
		if err := rows.Scan(&s.ProductID, &s.Name, &s.Price, &s.DiscountPercent, &s.StockQuantity, &s.Active); err != nil {
			return nil, err
		}
		snapshots[s.ProductID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// DecrementStock applies a conditional stock decrement and returns the number
// of rows affected. Zero means the product had fewer than amount units left;
// the caller decides how to surface that. Sufficiency is checked upstream
// under the same transaction, the condition here is the last line of defence.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx DBTX, id string, amount int) (int64, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`

	result, err := tx.ExecContext(ctx, query, id, amount)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// IncrementStock restores stock for a product, used by order cancellation.
func (r *ProductRepository) IncrementStock(ctx context.Context, tx DBTX, id string, amount int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query, id, amount)
	return err
}

// ListCategories returns all product categories.
func (r *ProductRepository) ListCategories(ctx context.Context, db DBTX) ([]*models.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func scanProduct(rows *sql.Rows) (*models.Product, error) {
	var p models.Product
	var description sql.NullString

	err := rows.Scan(
		&p.ID,
		&p.ProducerID,
		&p.ProducerName,
		&p.CategoryID,
		&p.CategoryName,
		&p.Name,
		&description,
		&p.Price,
		&p.DiscountPercent,
		&p.PromotionActive,
		&p.StockQuantity,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		p.Description = description.String
	}

	return &p, nil
}

