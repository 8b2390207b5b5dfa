// Package handlers contains the gin HTTP layer: thin glue translating
// requests into service calls and service results into the uniform response
// envelope.
package handlers

import (
	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/service"
)

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	checkout  *service.CheckoutService
	orders    *service.OrderService
	catalog   *service.CatalogService
	carts     *service.CartService
	addresses *service.AddressService
	config    *config.Config
	logger    *zap.Logger
}

// New creates the handler set.
func New(
	checkout *service.CheckoutService,
	orders *service.OrderService,
	catalog *service.CatalogService,
	carts *service.CartService,
	addresses *service.AddressService,
	cfg *config.Config,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		checkout:  checkout,
		orders:    orders,
		catalog:   catalog,
		carts:     carts,
		addresses: addresses,
		config:    cfg,
		logger:    logger,
	}
}
