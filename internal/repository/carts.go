package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/models"
)

// CartRepository persists the one-cart-per-buyer model.
type CartRepository struct {
	logger *zap.Logger
}

// NewCartRepository creates a Postgres-backed cart repository.
func NewCartRepository(logger *zap.Logger) *CartRepository {
	return &CartRepository{logger: logger}
}

// FindByOwner loads the owner's cart with its items, creating the cart row on
// first use.
func (r *CartRepository) FindByOwner(ctx context.Context, db DBTX, ownerID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, updated_at FROM carts WHERE user_id = $1`,
		ownerID,
	).Scan(&cart.ID, &cart.UserID, &cart.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		cart = models.Cart{
			ID:        models.NewID("crt"),
			UserID:    ownerID,
			UpdatedAt: time.Now(),
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO carts (id, user_id, updated_at) VALUES ($1, $2, $3)
			 ON CONFLICT (user_id) DO NOTHING`,
			cart.ID, cart.UserID, cart.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		// Another request may have won the insert race.
		if err := db.QueryRowContext(ctx,
			`SELECT id, user_id, updated_at FROM carts WHERE user_id = $1`,
			ownerID,
		).Scan(&cart.ID, &cart.UserID, &cart.UpdatedAt); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, db, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return &cart, nil
}

func (r *CartRepository) loadItems(ctx context.Context, db DBTX, cartID string) ([]models.CartItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, p.name, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.CartItem, 0)
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpsertItem adds a product line to the cart, merging quantities when the
// product is already present.
func (r *CartRepository) UpsertItem(ctx context.Context, db DBTX, cartID, productID string, quantity int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, models.NewID("cit"), cartID, productID, quantity)
	if err != nil {
		return err
	}

	return r.touch(ctx, db, cartID)
}

// SetItemQuantity replaces the quantity of one cart item owned by cartID.
// Returns sql.ErrNoRows when the item is not in that cart.
func (r *CartRepository) SetItemQuantity(ctx context.Context, db DBTX, cartID, itemID string, quantity int) error {
	result, err := db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $2 AND cart_id = $1`,
		cartID, itemID, quantity,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return r.touch(ctx, db, cartID)
}

// RemoveItem deletes one cart item owned by cartID.
func (r *CartRepository) RemoveItem(ctx context.Context, db DBTX, cartID, itemID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $2 AND cart_id = $1`,
		cartID, itemID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return r.touch(ctx, db, cartID)
}

// DeleteItems removes every item from the cart. The cart row itself persists.
// Runs inside the checkout transaction so cart state is never inconsistent
// with a half-created order.
func (r *CartRepository) DeleteItems(ctx context.Context, tx DBTX, cartID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	return r.touch(ctx, tx, cartID)
}

func (r *CartRepository) touch(ctx context.Context, db DBTX, cartID string) error {
	_, err := db.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)
	return err
}
