package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a producer's catalog entry.
type Product struct {
	ID              string          `json:"id"`
	ProducerID      string          `json:"producer_id"`
	ProducerName    string          `json:"producer_name,omitempty"`
	CategoryID      string          `json:"category_id"`
	CategoryName    string          `json:"category_name,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	PromotionActive bool            `json:"promotion_active"`
	StockQuantity   int             `json:"stock_quantity"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductSnapshot is the catalog state of one product captured inside the
// checkout transaction. DiscountPercent is already resolved to zero when the
// product's promotion is inactive.
type ProductSnapshot struct {
	ProductID       string
	Name            string
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	StockQuantity   int
	Active          bool
}

// FinalPrice returns the effective unit price of a snapshot: the list price
// with the active discount applied, rounded half-up to 2 decimal places.
func FinalPrice(s ProductSnapshot) decimal.Decimal {
	if s.DiscountPercent.IsZero() {
		return s.Price.Round(2)
	}
	factor := decimal.NewFromInt(1).Sub(s.DiscountPercent.Div(decimal.NewFromInt(100)))
	return s.Price.Mul(factor).Round(2)
}

// Category groups products for browsing.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
