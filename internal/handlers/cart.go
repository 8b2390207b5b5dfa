package handlers

import (
	"github.com/gin-gonic/gin"
)

// GetCart handles GET /api/v1/cart.
func (h *Handlers) GetCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "cart loaded", cart)
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// AddCartItem handles POST /api/v1/cart/items.
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "item added to cart", cart)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// UpdateCartItem handles PATCH /api/v1/cart/items/:id.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	cart, err := h.carts.UpdateItemQuantity(c.Request.Context(), currentUserID(c), c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "cart item updated", cart)
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:id.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	cart, err := h.carts.RemoveItem(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "cart item removed", cart)
}
