package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/models"
	"github.com/feiradireta/feiradireta-api/internal/repository"
)

// memStore is an in-memory implementation of the store interfaces. Every
// method ignores the DBTX handle; transactional behavior comes from memTx,
// which snapshots the store at begin and restores it on rollback.
type memStore struct {
	cart      *models.Cart
	products  map[string]*models.Product
	addresses map[string]*models.Address
	orders    map[string]*models.Order

	lastListLimit int

	// beforeDecrement runs just before a stock decrement, simulating a
	// concurrent writer changing stock between snapshot and update.
	beforeDecrement func(s *memStore, productID string)
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newMemStore() *memStore {
	return &memStore{
		cart:      &models.Cart{ID: "crt_1", UserID: "usr_buyer"},
		products:  make(map[string]*models.Product),
		addresses: make(map[string]*models.Address),
		orders:    make(map[string]*models.Order),
	}
}

func (m *memStore) clone() *memStore {
	cp := &memStore{
		products:        make(map[string]*models.Product, len(m.products)),
		addresses:       make(map[string]*models.Address, len(m.addresses)),
		orders:          make(map[string]*models.Order, len(m.orders)),
		lastListLimit:   m.lastListLimit,
		beforeDecrement: m.beforeDecrement,
	}
	if m.cart != nil {
		c := *m.cart
		c.Items = append([]models.CartItem(nil), m.cart.Items...)
		cp.cart = &c
	}
	for id, p := range m.products {
		v := *p
		cp.products[id] = &v
	}
	for id, a := range m.addresses {
		v := *a
		cp.addresses[id] = &v
	}
	for id, o := range m.orders {
		v := *o
		v.Items = append([]models.OrderItem(nil), o.Items...)
		cp.orders[id] = &v
	}
	return cp
}

func (m *memStore) addProduct(id, name, price, discount string, promo bool, stock int, active bool) {
	m.products[id] = &models.Product{
		ID:              id,
		Name:            name,
		Price:           mustDecimal(price),
		DiscountPercent: mustDecimal(discount),
		PromotionActive: promo,
		StockQuantity:   stock,
		Active:          active,
	}
}

func (m *memStore) addCartItem(productID string, quantity int) {
	m.cart.Items = append(m.cart.Items, models.CartItem{
		ID:        models.NewID("cit"),
		CartID:    m.cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

func (m *memStore) addAddress(id, ownerID string, isDefault bool) {
	m.addresses[id] = &models.Address{
		ID:         id,
		UserID:     ownerID,
		Street:     "Rua das Flores",
		Number:     "100",
		District:   "Centro",
		City:       "Curitiba",
		State:      "PR",
		PostalCode: "80010-000",
		IsDefault:  isDefault,
	}
}

// CartStore

func (m *memStore) FindByOwner(ctx context.Context, db repository.DBTX, ownerID string) (*models.Cart, error) {
	if m.cart != nil && m.cart.UserID == ownerID {
		return m.cart, nil
	}
	return &models.Cart{ID: models.NewID("crt"), UserID: ownerID}, nil
}

func (m *memStore) UpsertItem(ctx context.Context, db repository.DBTX, cartID, productID string, quantity int) error {
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items[i].Quantity += quantity
			return nil
		}
	}
	m.addCartItem(productID, quantity)
	return nil
}

func (m *memStore) SetItemQuantity(ctx context.Context, db repository.DBTX, cartID, itemID string, quantity int) error {
	for i := range m.cart.Items {
		if m.cart.Items[i].ID == itemID {
			m.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) RemoveItem(ctx context.Context, db repository.DBTX, cartID, itemID string) error {
	for i := range m.cart.Items {
		if m.cart.Items[i].ID == itemID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) DeleteItems(ctx context.Context, tx repository.DBTX, cartID string) error {
	m.cart.Items = nil
	return nil
}

// ProductStore

func (m *memStore) List(ctx context.Context, db repository.DBTX, filter repository.ProductFilter) ([]*models.Product, int, error) {
	out := make([]*models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memStore) GetByID(ctx context.Context, db repository.DBTX, id string) (*models.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, nil
}

func (m *memStore) ListCategories(ctx context.Context, db repository.DBTX) ([]*models.Category, error) {
	return nil, nil
}

func (m *memStore) SnapshotForUpdate(ctx context.Context, tx repository.DBTX, ids []string) (map[string]models.ProductSnapshot, error) {
	snapshots := make(map[string]models.ProductSnapshot, len(ids))
	for _, id := range ids {
		p, ok := m.products[id]
		if !ok {
			continue
		}
		discount := mustDecimal("0")
		if p.PromotionActive {
			discount = p.DiscountPercent
		}
		snapshots[id] = models.ProductSnapshot{
			ProductID:       p.ID,
			Name:            p.Name,
			Price:           p.Price,
			DiscountPercent: discount,
			StockQuantity:   p.StockQuantity,
			Active:          p.Active,
		}
	}
	return snapshots, nil
}

func (m *memStore) DecrementStock(ctx context.Context, tx repository.DBTX, id string, amount int) (int64, error) {
	if m.beforeDecrement != nil {
		m.beforeDecrement(m, id)
	}
	p, ok := m.products[id]
	if !ok || p.StockQuantity < amount {
		return 0, nil
	}
	p.StockQuantity -= amount
	return 1, nil
}

func (m *memStore) IncrementStock(ctx context.Context, tx repository.DBTX, id string, amount int) error {
	if p, ok := m.products[id]; ok {
		p.StockQuantity += amount
	}
	return nil
}

// AddressStore

func (m *memStore) FindByID(ctx context.Context, db repository.DBTX, id, ownerID string) (*models.Address, error) {
	if a, ok := m.addresses[id]; ok && a.UserID == ownerID {
		return a, nil
	}
	return nil, nil
}

func (m *memStore) FindDefault(ctx context.Context, db repository.DBTX, ownerID string) (*models.Address, error) {
	for _, a := range m.addresses {
		if a.UserID == ownerID && a.IsDefault {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByOwner(ctx context.Context, db repository.DBTX, ownerID string) ([]*models.Address, error) {
	var out []*models.Address
	for _, a := range m.addresses {
		if a.UserID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) Create(ctx context.Context, db repository.DBTX, addr *models.Address) error {
	v := *addr
	m.addresses[addr.ID] = &v
	return nil
}

func (m *memStore) SetDefault(ctx context.Context, tx repository.DBTX, id, ownerID string) error {
	target, ok := m.addresses[id]
	if !ok || target.UserID != ownerID {
		return sql.ErrNoRows
	}
	for _, a := range m.addresses {
		if a.UserID == ownerID {
			a.IsDefault = a.ID == id
		}
	}
	return nil
}

// OrderStore

func (m *memStore) CreateOrder(ctx context.Context, tx repository.DBTX, order *models.Order) error {
	v := *order
	v.Items = append([]models.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &v
	return nil
}

func (m *memStore) GetOrderByID(ctx context.Context, db repository.DBTX, id string) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	v := *o
	v.Items = append([]models.OrderItem(nil), o.Items...)
	return &v, nil
}

func (m *memStore) GetByIDForUpdate(ctx context.Context, tx repository.DBTX, id string) (*models.Order, error) {
	return m.GetOrderByID(ctx, tx, id)
}

func (m *memStore) UpdateStatus(ctx context.Context, tx repository.DBTX, id string, status models.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	if status == models.OrderStatusDelivered {
		now := time.Now()
		o.DeliveredAt = &now
	}
	return nil
}

func (m *memStore) ListByBuyer(ctx context.Context, db repository.DBTX, buyerID string, limit, offset int) ([]*models.Order, int, error) {
	m.lastListLimit = limit
	var out []*models.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

// orderStoreAdapter exposes the order methods under the OrderStore names,
// which collide with the product and address methods on memStore itself.
type orderStoreAdapter struct {
	s *memStore
}

func (a orderStoreAdapter) Create(ctx context.Context, tx repository.DBTX, order *models.Order) error {
	return a.s.CreateOrder(ctx, tx, order)
}

func (a orderStoreAdapter) GetByID(ctx context.Context, db repository.DBTX, id string) (*models.Order, error) {
	return a.s.GetOrderByID(ctx, db, id)
}

func (a orderStoreAdapter) GetByIDForUpdate(ctx context.Context, tx repository.DBTX, id string) (*models.Order, error) {
	return a.s.GetOrderByID(ctx, tx, id)
}

func (a orderStoreAdapter) UpdateStatus(ctx context.Context, tx repository.DBTX, id string, status models.OrderStatus) error {
	return a.s.UpdateStatus(ctx, tx, id, status)
}

func (a orderStoreAdapter) ListByBuyer(ctx context.Context, db repository.DBTX, buyerID string, limit, offset int) ([]*models.Order, int, error) {
	return a.s.ListByBuyer(ctx, db, buyerID, limit, offset)
}

// memTx runs the closure against the shared store, restoring the pre-begin
// snapshot when the closure fails. This mirrors the all-or-nothing behavior
// the real TxStore gets from the database.
type memTx struct {
	store    *memStore
	beginErr error
}

func (m *memTx) RunInTx(ctx context.Context, fn func(tx repository.DBTX) error) error {
	if m.beginErr != nil {
		return &apperrors.TransactionFailureError{Err: m.beginErr}
	}
	snapshot := m.store.clone()
	if err := fn(nil); err != nil {
		*m.store = *snapshot
		return apperrors.NewTransactionFailure(err)
	}
	return nil
}

// nullCache satisfies Cache without storing anything.
type nullCache struct{}

func (nullCache) GetOrder(ctx context.Context, id string) (*models.Order, error) { return nil, nil }
func (nullCache) SetOrder(ctx context.Context, order *models.Order) error        { return nil }
func (nullCache) DeleteOrder(ctx context.Context, id string) error               { return nil }
func (nullCache) GetBuyerOrders(ctx context.Context, buyerID string) ([]*models.Order, error) {
	return nil, nil
}
func (nullCache) SetBuyerOrders(ctx context.Context, buyerID string, orders []*models.Order) error {
	return nil
}
func (nullCache) InvalidateBuyerOrders(ctx context.Context, buyerID string) error { return nil }
func (nullCache) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return nil, nil
}
func (nullCache) SetProduct(ctx context.Context, product *models.Product) error { return nil }

// recordPublisher captures emitted event types in order.
type recordPublisher struct {
	events []string
}

func (r *recordPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	r.events = append(r.events, "order.created")
	return nil
}

func (r *recordPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	r.events = append(r.events, "order.status_changed")
	return nil
}

func (r *recordPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order) error {
	r.events = append(r.events, "order.cancelled")
	return nil
}

// noopNotifier satisfies NotificationSender.
type noopNotifier struct{}

func (noopNotifier) SendOrderConfirmation(ctx context.Context, order *models.Order) error { return nil }
func (noopNotifier) SendOrderCancelled(ctx context.Context, order *models.Order) error    { return nil }
func (noopNotifier) SendOrderDelivered(ctx context.Context, order *models.Order) error    { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Features: config.FeatureFlags{
			EnableOrderEvents: true,
		},
	}
}

func newCheckoutFixture() (*CheckoutService, *memStore, *recordPublisher) {
	store := newMemStore()
	publisher := &recordPublisher{}
	svc := NewCheckoutService(
		&memTx{store: store}, nil,
		store, store, store, orderStoreAdapter{store},
		nullCache{}, publisher, noopNotifier{},
		testConfig(), zap.NewNop(),
	)
	return svc, store, publisher
}

func newOrderFixture() (*OrderService, *memStore, *recordPublisher) {
	store := newMemStore()
	publisher := &recordPublisher{}
	svc := NewOrderService(
		&memTx{store: store}, nil,
		orderStoreAdapter{store},
		nullCache{}, publisher, noopNotifier{},
		testConfig(), zap.NewNop(),
	)
	return svc, store, publisher
}
