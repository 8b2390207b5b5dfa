package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is an immutable record of a purchase. Total and per-item prices are
// fixed at creation and never recomputed from live catalog data.
type Order struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"buyer_id"`
	Status          OrderStatus     `json:"status"`
	Items           []OrderItem     `json:"items"`
	DeliveryAddress AddressSnapshot `json:"delivery_address"`
	Total           decimal.Decimal `json:"total"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
}

// OrderItem is one line of an order. UnitPrice is the catalog's discounted
// price at the instant of order creation; Subtotal = Quantity x UnitPrice.
type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProducerName string          `json:"producer_name,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// CanCancel reports whether an order in the given status may still be
// cancelled. Only pending and confirmed orders qualify.
func CanCancel(status OrderStatus) bool {
	return status == OrderStatusPending || status == OrderStatusConfirmed
}

// IsFinalized reports whether the given status is terminal.
func IsFinalized(status OrderStatus) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// IsUpdatableTarget reports whether status is one of the values a status
// update may move an order to. Cancellation has its own endpoint and is not
// an updatable target.
func IsUpdatableTarget(status OrderStatus) bool {
	switch status {
	case OrderStatusConfirmed, OrderStatusPreparing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}
