package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/feiradireta/feiradireta-api/internal/repository"
)

// ListProducts handles GET /api/v1/products with optional category, producer
// and search filters.
func (h *Handlers) ListProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		CategoryID: c.Query("category_id"),
		ProducerID: c.Query("producer_id"),
		Search:     c.Query("search"),
		Limit:      queryInt(c, "limit", 20),
		Offset:     queryInt(c, "offset", 0),
	}

	products, total, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "products listed", products, Pagination{
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetProduct handles GET /api/v1/products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if product == nil {
		respondNotFound(c, "product not found")
		return
	}

	respondOK(c, "product found", product)
}

// ListCategories handles GET /api/v1/categories.
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "categories listed", categories)
}
