// Package service holds the business logic: the checkout transaction
// coordinator, the order assembler, and the catalog/cart/order/address
// services the handlers call.
package service

import (
	"context"

	"github.com/feiradireta/feiradireta-api/internal/models"
	"github.com/feiradireta/feiradireta-api/internal/repository"
)

// TxRunner executes a function inside a single database transaction. The
// transaction value is passed explicitly to every store call that
// participates, so the atomic boundary is visible in the signatures.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx repository.DBTX) error) error
}

// CartStore persists carts and their lines.
type CartStore interface {
	FindByOwner(ctx context.Context, db repository.DBTX, ownerID string) (*models.Cart, error)
	UpsertItem(ctx context.Context, db repository.DBTX, cartID, productID string, quantity int) error
	SetItemQuantity(ctx context.Context, db repository.DBTX, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, db repository.DBTX, cartID, itemID string) error
	DeleteItems(ctx context.Context, tx repository.DBTX, cartID string) error
}

// ProductStore reads the catalog and applies stock deltas.
type ProductStore interface {
	List(ctx context.Context, db repository.DBTX, filter repository.ProductFilter) ([]*models.Product, int, error)
	GetByID(ctx context.Context, db repository.DBTX, id string) (*models.Product, error)
	ListCategories(ctx context.Context, db repository.DBTX) ([]*models.Category, error)
	SnapshotForUpdate(ctx context.Context, tx repository.DBTX, ids []string) (map[string]models.ProductSnapshot, error)
	DecrementStock(ctx context.Context, tx repository.DBTX, id string, amount int) (int64, error)
	IncrementStock(ctx context.Context, tx repository.DBTX, id string, amount int) error
}

// AddressStore persists users' address books.
type AddressStore interface {
	FindByID(ctx context.Context, db repository.DBTX, id, ownerID string) (*models.Address, error)
	FindDefault(ctx context.Context, db repository.DBTX, ownerID string) (*models.Address, error)
	ListByOwner(ctx context.Context, db repository.DBTX, ownerID string) ([]*models.Address, error)
	Create(ctx context.Context, db repository.DBTX, addr *models.Address) error
	SetDefault(ctx context.Context, tx repository.DBTX, id, ownerID string) error
}

// OrderStore persists orders and their lines.
type OrderStore interface {
	Create(ctx context.Context, tx repository.DBTX, order *models.Order) error
	GetByID(ctx context.Context, db repository.DBTX, id string) (*models.Order, error)
	GetByIDForUpdate(ctx context.Context, tx repository.DBTX, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, tx repository.DBTX, id string, status models.OrderStatus) error
	ListByBuyer(ctx context.Context, db repository.DBTX, buyerID string, limit, offset int) ([]*models.Order, int, error)
}

// Cache is the read-through cache for orders and product display data. All
// cache failures are logged and swallowed; the database stays authoritative.
type Cache interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	SetOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id string) error
	GetBuyerOrders(ctx context.Context, buyerID string) ([]*models.Order, error)
	SetBuyerOrders(ctx context.Context, buyerID string, orders []*models.Order) error
	InvalidateBuyerOrders(ctx context.Context, buyerID string) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
}

// EventPublisher emits order lifecycle events. Publishing is best effort and
// never fails the request.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
	PublishOrderCancelled(ctx context.Context, order *models.Order) error
}

// NotificationSender delivers order notifications to buyers out of band.
type NotificationSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendOrderCancelled(ctx context.Context, order *models.Order) error
	SendOrderDelivered(ctx context.Context, order *models.Order) error
}
