package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/models"
	"github.com/feiradireta/feiradireta-api/internal/repository"
)

// CatalogService serves the product browse surface. Its caches are display
// only; the checkout path always reads the catalog inside its own
// transaction.
type CatalogService struct {
	db       repository.DBTX
	products ProductStore
	cache    Cache
	config   *config.Config
	logger   *zap.Logger
}

// NewCatalogService wires the catalog service.
func NewCatalogService(db repository.DBTX, products ProductStore, cache Cache, cfg *config.Config, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		db:       db,
		products: products,
		cache:    cache,
		config:   cfg,
		logger:   logger,
	}
}

// ListProducts returns a page of active products matching the filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*models.Product, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.products.List(ctx, s.db, filter)
}

// GetProduct returns one product for display, read through the short-lived
// browse cache.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if s.config.Features.EnableProductCaching {
		if product, err := s.cache.GetProduct(ctx, id); err == nil && product != nil {
			return product, nil
		}
	}

	product, err := s.products.GetByID(ctx, s.db, id)
	if err != nil || product == nil {
		return product, err
	}

	if s.config.Features.EnableProductCaching {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("failed to cache product", zap.String("product_id", id), zap.Error(err))
		}
	}

	return product, nil
}

// ListCategories returns all product categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.products.ListCategories(ctx, s.db)
}
