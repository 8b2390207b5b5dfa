package service

import (
	"github.com/shopspring/decimal"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/models"
)

// PricedLine is one validated cart line with its captured price. UnitPrice is
// the discounted catalog price at assembly time; Subtotal = Quantity x
// UnitPrice, rounded half-up to 2 decimal places.
type PricedLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// AssembleOrder validates cart items against catalog snapshots and computes
// the priced lines and grand total. It performs no I/O and fails fast on the
// first violation: empty cart, then product availability across all lines,
// then stock sufficiency across all lines.
func AssembleOrder(items []models.CartItem, snapshots map[string]models.ProductSnapshot) ([]PricedLine, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, apperrors.ErrEmptyCart
	}

	for _, item := range items {
		snap, ok := snapshots[item.ProductID]
		if !ok {
			return nil, decimal.Zero, &apperrors.ProductUnavailableError{ProductName: item.ProductName}
		}
		if !snap.Active {
			return nil, decimal.Zero, &apperrors.ProductUnavailableError{ProductName: snap.Name}
		}
	}

	for _, item := range items {
		snap := snapshots[item.ProductID]
		if snap.StockQuantity < item.Quantity {
			return nil, decimal.Zero, &apperrors.InsufficientStockError{
				ProductName: snap.Name,
				Available:   snap.StockQuantity,
			}
		}
	}

	lines := make([]PricedLine, 0, len(items))
	total := decimal.Zero

	for _, item := range items {
		snap := snapshots[item.ProductID]
		unitPrice := models.FinalPrice(snap)
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)

		lines = append(lines, PricedLine{
			ProductID:   snap.ProductID,
			ProductName: snap.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	return lines, total.Round(2), nil
}
