package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feiradireta/feiradireta-api/internal/models"
	"github.com/feiradireta/feiradireta-api/internal/service"
)

type placeOrderRequest struct {
	AddressID string `json:"address_id"`
	Notes     string `json:"notes"`
}

// PlaceOrder handles POST /api/v1/orders: converts the buyer's cart into an
// order.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBadRequest(c, "invalid request body")
		return
	}

	order, err := h.checkout.PlaceOrder(c.Request.Context(), currentUserID(c), service.PlaceOrderInput{
		AddressID: req.AddressID,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "order placed", order)
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *Handlers) GetOrder(c *gin.Context) {
	requesterID := currentUserID(c)
	if models.Role(c.GetString(ctxUserRole)) == models.RoleAdmin {
		requesterID = ""
	}

	order, err := h.orders.GetOrder(c.Request.Context(), requesterID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "order found", order)
}

// ListOrders handles GET /api/v1/orders: the buyer's own orders, paginated.
func (h *Handlers) ListOrders(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	orders, total, err := h.orders.ListBuyerOrders(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "orders listed", orders, Pagination{Total: total, Limit: limit, Offset: offset})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (h *Handlers) CancelOrder(c *gin.Context) {
	buyerID := currentUserID(c)
	if models.Role(c.GetString(ctxUserRole)) == models.RoleAdmin {
		buyerID = ""
	}

	order, err := h.checkout.Cancel(c.Request.Context(), buyerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "order cancelled", order)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status, restricted to
// producers and admins.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "order status updated", order)
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if raw := c.Query(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return defaultValue
}
