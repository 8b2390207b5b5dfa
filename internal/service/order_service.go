package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/models"
	"github.com/feiradireta/feiradireta-api/internal/repository"
)

// OrderService serves order reads and post-creation status transitions.
type OrderService struct {
	txs       TxRunner
	db        repository.DBTX
	orders    OrderStore
	cache     Cache
	publisher EventPublisher
	notifier  NotificationSender
	config    *config.Config
	logger    *zap.Logger
}

// NewOrderService wires the order service.
func NewOrderService(
	txs TxRunner,
	db repository.DBTX,
	orders OrderStore,
	cache Cache,
	publisher EventPublisher,
	notifier NotificationSender,
	cfg *config.Config,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		txs:       txs,
		db:        db,
		orders:    orders,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		config:    cfg,
		logger:    logger,
	}
}

// GetOrder returns one order visible to the requester. Buyers see only their
// own orders; an empty requesterID skips the ownership check (admin path).
func (s *OrderService) GetOrder(ctx context.Context, requesterID, orderID string) (*models.Order, error) {
	if s.config.Features.EnableOrderCaching {
		if order, err := s.cache.GetOrder(ctx, orderID); err == nil && order != nil {
			if requesterID != "" && order.BuyerID != requesterID {
				return nil, apperrors.ErrOrderNotFound
			}
			return order, nil
		}
	}

	order, err := s.orders.GetByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || (requesterID != "" && order.BuyerID != requesterID) {
		return nil, apperrors.ErrOrderNotFound
	}

	if s.config.Features.EnableOrderCaching {
		if err := s.cache.SetOrder(ctx, order); err != nil {
			s.logger.Warn("failed to cache order", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	return order, nil
}

// ListBuyerOrders returns a page of the buyer's orders, newest first. The
// first page is served from cache when available.
func (s *OrderService) ListBuyerOrders(ctx context.Context, buyerID string, limit, offset int) ([]*models.Order, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	if s.config.Features.EnableOrderCaching && offset == 0 {
		if orders, err := s.cache.GetBuyerOrders(ctx, buyerID); err == nil && orders != nil {
			return orders, len(orders), nil
		}
	}

	orders, total, err := s.orders.ListByBuyer(ctx, s.db, buyerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if s.config.Features.EnableOrderCaching && offset == 0 {
		if err := s.cache.SetBuyerOrders(ctx, buyerID, orders); err != nil {
			s.logger.Warn("failed to cache buyer orders", zap.String("buyer_id", buyerID), zap.Error(err))
		}
	}

	return orders, total, nil
}

// UpdateStatus moves an order to one of {confirmed, preparing, shipped,
// delivered}. A finalized order rejects any further update; the transition to
// delivered stamps the actual delivery time. The finalized guard is
// re-checked under the order's row lock. No ordering between the four
// non-terminal targets is enforced.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, target models.OrderStatus) (*models.Order, error) {
	if !models.IsUpdatableTarget(target) {
		return nil, &apperrors.InvalidStatusError{Status: string(target)}
	}

	var order *models.Order
	var previous models.OrderStatus

	err := s.txs.RunInTx(ctx, func(tx repository.DBTX) error {
		o, err := s.orders.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperrors.ErrOrderNotFound
		}
		if models.IsFinalized(o.Status) {
			return apperrors.ErrOrderAlreadyFinalized
		}

		if err := s.orders.UpdateStatus(ctx, tx, orderID, target); err != nil {
			return err
		}

		previous = o.Status
		o.Status = target
		now := time.Now()
		o.UpdatedAt = now
		if target == models.OrderStatusDelivered {
			o.DeliveredAt = &now
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(target)),
	)

	if s.config.Features.EnableOrderCaching {
		if err := s.cache.DeleteOrder(ctx, orderID); err != nil {
			s.logger.Warn("failed to drop order from cache", zap.String("order_id", orderID), zap.Error(err))
		}
		if err := s.cache.InvalidateBuyerOrders(ctx, order.BuyerID); err != nil {
			s.logger.Warn("failed to invalidate buyer orders cache", zap.String("buyer_id", order.BuyerID), zap.Error(err))
		}
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.publisher.PublishOrderStatusChanged(ctx, order, previous); err != nil {
			s.logger.Warn("failed to publish status change event", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	if s.config.Features.EnableNotifications && target == models.OrderStatusDelivered {
		go func(o *models.Order) {
			if err := s.notifier.SendOrderDelivered(context.Background(), o); err != nil {
				s.logger.Warn("failed to send delivery notice", zap.String("order_id", o.ID), zap.Error(err))
			}
		}(order)
	}

	return order, nil
}
