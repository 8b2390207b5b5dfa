package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/models"
	"github.com/feiradireta/feiradireta-api/internal/repository"
)

// CartService maintains buyers' carts ahead of checkout.
type CartService struct {
	db       repository.DBTX
	carts    CartStore
	products ProductStore
	logger   *zap.Logger
}

// NewCartService wires the cart service.
func NewCartService(db repository.DBTX, carts CartStore, products ProductStore, logger *zap.Logger) *CartService {
	return &CartService{
		db:       db,
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// GetCart loads the buyer's cart, creating it on first use.
func (s *CartService) GetCart(ctx context.Context, buyerID string) (*models.Cart, error) {
	return s.carts.FindByOwner(ctx, s.db, buyerID)
}

// AddItem puts quantity units of a product into the buyer's cart, merging
// with an existing line for the same product. The product must exist and be
// active; stock is not reserved here, only at checkout.
func (s *CartService) AddItem(ctx context.Context, buyerID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.NewValidationError("quantity", "must be at least 1")
	}

	product, err := s.products.GetByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Active {
		name := productID
		if product != nil {
			name = product.Name
		}
		return nil, &apperrors.ProductUnavailableError{ProductName: name}
	}

	cart, err := s.carts.FindByOwner(ctx, s.db, buyerID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.UpsertItem(ctx, s.db, cart.ID, productID, quantity); err != nil {
		return nil, err
	}

	return s.carts.FindByOwner(ctx, s.db, buyerID)
}

// UpdateItemQuantity replaces the quantity of one line in the buyer's cart.
func (s *CartService) UpdateItemQuantity(ctx context.Context, buyerID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.NewValidationError("quantity", "must be at least 1")
	}

	cart, err := s.carts.FindByOwner(ctx, s.db, buyerID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.SetItemQuantity(ctx, s.db, cart.ID, itemID, quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewValidationError("item_id", "item not found in cart")
		}
		return nil, err
	}

	return s.carts.FindByOwner(ctx, s.db, buyerID)
}

// RemoveItem deletes one line from the buyer's cart.
func (s *CartService) RemoveItem(ctx context.Context, buyerID, itemID string) (*models.Cart, error) {
	cart, err := s.carts.FindByOwner(ctx, s.db, buyerID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.RemoveItem(ctx, s.db, cart.ID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewValidationError("item_id", "item not found in cart")
		}
		return nil, err
	}

	return s.carts.FindByOwner(ctx, s.db, buyerID)
}
