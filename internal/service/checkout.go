package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/metrics"
	"github.com/feiradireta/feiradireta-api/internal/models"
	"github.com/feiradireta/feiradireta-api/internal/repository"
)

// CheckoutService owns the order placement and cancellation transactions.
// Everything between begin and commit sees one consistent view of the cart,
// the catalog and the order rows; any failure rolls the whole unit back.
type CheckoutService struct {
	txs       TxRunner
	db        repository.DBTX
	carts     CartStore
	products  ProductStore
	addresses AddressStore
	orders    OrderStore
	cache     Cache
	publisher EventPublisher
	notifier  NotificationSender
	config    *config.Config
	logger    *zap.Logger
}

// NewCheckoutService wires the checkout coordinator.
func NewCheckoutService(
	txs TxRunner,
	db repository.DBTX,
	carts CartStore,
	products ProductStore,
	addresses AddressStore,
	orders OrderStore,
	cache Cache,
	publisher EventPublisher,
	notifier NotificationSender,
	cfg *config.Config,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		txs:       txs,
		db:        db,
		carts:     carts,
		products:  products,
		addresses: addresses,
		orders:    orders,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		config:    cfg,
		logger:    logger,
	}
}

// PlaceOrderInput carries the buyer's checkout choices. AddressID is
// optional; when empty the buyer's default address is used.
type PlaceOrderInput struct {
	AddressID string
	Notes     string
}

// PlaceOrder converts the buyer's cart into an order. The whole sequence runs
// in one transaction: load cart, resolve the delivery address, snapshot the
// referenced products under row locks, assemble and validate, insert the
// order and its lines, decrement stock per line, clear the cart. On any error
// nothing is observable afterwards.
func (s *CheckoutService) PlaceOrder(ctx context.Context, buyerID string, in PlaceOrderInput) (*models.Order, error) {
	start := time.Now()

	var order *models.Order
	err := s.txs.RunInTx(ctx, func(tx repository.DBTX) error {
		cart, err := s.carts.FindByOwner(ctx, tx, buyerID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return apperrors.ErrEmptyCart
		}

		address, err := s.resolveAddress(ctx, tx, buyerID, in.AddressID)
		if err != nil {
			return err
		}

		snapshots, err := s.products.SnapshotForUpdate(ctx, tx, distinctProductIDs(cart.Items))
		if err != nil {
			return err
		}

		lines, total, err := AssembleOrder(cart.Items, snapshots)
		if err != nil {
			return err
		}

		now := time.Now()
		order = &models.Order{
			ID:              models.NewID("ord"),
			BuyerID:         buyerID,
			Status:          models.OrderStatusPending,
			DeliveryAddress: address.Snapshot(),
			Total:           total,
			Notes:           in.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		for _, line := range lines {
			order.Items = append(order.Items, models.OrderItem{
				ID:          models.NewID("itm"),
				OrderID:     order.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Subtotal:    line.Subtotal,
			})
		}

		if err := s.orders.Create(ctx, tx, order); err != nil {
			return err
		}

		for _, line := range lines {
			affected, err := s.products.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			// The conditional update failing after a locked snapshot read
			// means stock moved underneath us; surface it as the same
			// domain error the assembler would have raised.
			if affected == 0 {
				return &apperrors.InsufficientStockError{
					ProductName: line.ProductName,
					Available:   snapshots[line.ProductID].StockQuantity,
				}
			}
		}

		return s.carts.DeleteItems(ctx, tx, cart.ID)
	})
	if err != nil {
		metrics.CheckoutFailuresTotal.WithLabelValues(checkoutFailureReason(err)).Inc()
		s.logger.Warn("checkout failed",
			zap.String("buyer_id", buyerID),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", buyerID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)

	// Reload outside the transaction to pick up joined display fields.
	if full, err := s.orders.GetByID(ctx, s.db, order.ID); err == nil && full != nil {
		order = full
	}

	s.afterOrderPlaced(ctx, order)

	return order, nil
}

// Cancel reverses a cancellable order: inside one transaction the order row
// is locked, the can-cancel guard is re-checked under the lock, stock is
// restored for every line and the status flips to cancelled.
func (s *CheckoutService) Cancel(ctx context.Context, buyerID, orderID string) (*models.Order, error) {
	var order *models.Order
	err := s.txs.RunInTx(ctx, func(tx repository.DBTX) error {
		o, err := s.orders.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o == nil || (buyerID != "" && o.BuyerID != buyerID) {
			return apperrors.ErrOrderNotFound
		}

		// Checked under the row lock: a concurrent status update cannot
		// slip between the check and the write.
		if !models.CanCancel(o.Status) {
			return apperrors.ErrOrderNotCancellable
		}

		for _, item := range o.Items {
			if err := s.products.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateStatus(ctx, tx, orderID, models.OrderStatusCancelled); err != nil {
			return err
		}

		o.Status = models.OrderStatusCancelled
		o.UpdatedAt = time.Now()
		order = o
		return nil
	})
	if err != nil {
		if !apperrors.IsDomainError(err) {
			s.logger.Error("order cancellation failed",
				zap.String("order_id", orderID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.OrdersCancelledTotal.Inc()

	s.logger.Info("order cancelled",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", order.BuyerID),
	)

	s.afterOrderCancelled(ctx, order)

	return order, nil
}

func (s *CheckoutService) resolveAddress(ctx context.Context, tx repository.DBTX, buyerID, addressID string) (*models.Address, error) {
	if addressID != "" {
		address, err := s.addresses.FindByID(ctx, tx, addressID, buyerID)
		if err != nil {
			return nil, err
		}
		if address == nil {
			return nil, apperrors.ErrAddressNotFound
		}
		return address, nil
	}

	address, err := s.addresses.FindDefault(ctx, tx, buyerID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, apperrors.ErrNoDeliveryAddress
	}
	return address, nil
}

func (s *CheckoutService) afterOrderPlaced(ctx context.Context, order *models.Order) {
	if s.config.Features.EnableOrderCaching {
		if err := s.cache.SetOrder(ctx, order); err != nil {
			s.logger.Warn("failed to cache order", zap.String("order_id", order.ID), zap.Error(err))
		}
		if err := s.cache.InvalidateBuyerOrders(ctx, order.BuyerID); err != nil {
			s.logger.Warn("failed to invalidate buyer orders cache", zap.String("buyer_id", order.BuyerID), zap.Error(err))
		}
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
			s.logger.Warn("failed to publish order created event", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	if s.config.Features.EnableNotifications {
		go func(o *models.Order) {
			if err := s.notifier.SendOrderConfirmation(context.Background(), o); err != nil {
				s.logger.Warn("failed to send order confirmation", zap.String("order_id", o.ID), zap.Error(err))
			}
		}(order)
	}
}

func (s *CheckoutService) afterOrderCancelled(ctx context.Context, order *models.Order) {
	if s.config.Features.EnableOrderCaching {
		if err := s.cache.DeleteOrder(ctx, order.ID); err != nil {
			s.logger.Warn("failed to drop order from cache", zap.String("order_id", order.ID), zap.Error(err))
		}
		if err := s.cache.InvalidateBuyerOrders(ctx, order.BuyerID); err != nil {
			s.logger.Warn("failed to invalidate buyer orders cache", zap.String("buyer_id", order.BuyerID), zap.Error(err))
		}
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.publisher.PublishOrderCancelled(ctx, order); err != nil {
			s.logger.Warn("failed to publish order cancelled event", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	if s.config.Features.EnableNotifications {
		go func(o *models.Order) {
			if err := s.notifier.SendOrderCancelled(context.Background(), o); err != nil {
				s.logger.Warn("failed to send cancellation notice", zap.String("order_id", o.ID), zap.Error(err))
			}
		}(order)
	}
}

func distinctProductIDs(items []models.CartItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func checkoutFailureReason(err error) string {
	var (
		unavailable  *apperrors.ProductUnavailableError
		insufficient *apperrors.InsufficientStockError
		txFailure    *apperrors.TransactionFailureError
	)
	switch {
	case errors.Is(err, apperrors.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, apperrors.ErrAddressNotFound):
		return "address_not_found"
	case errors.Is(err, apperrors.ErrNoDeliveryAddress):
		return "no_delivery_address"
	case errors.As(err, &unavailable):
		return "product_unavailable"
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.As(err, &txFailure):
		return "transaction_failure"
	}
	return "other"
}
