package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/feiradireta/feiradireta-api/internal/models"
)

// ListAddresses handles GET /api/v1/addresses.
func (h *Handlers) ListAddresses(c *gin.Context) {
	addresses, err := h.addresses.ListAddresses(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "addresses listed", addresses)
}

type createAddressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// CreateAddress handles POST /api/v1/addresses.
func (h *Handlers) CreateAddress(c *gin.Context) {
	var req createAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	address, err := h.addresses.CreateAddress(c.Request.Context(), &models.Address{
		UserID:     currentUserID(c),
		Label:      req.Label,
		Street:     req.Street,
		Number:     req.Number,
		Complement: req.Complement,
		District:   req.District,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "address created", address)
}

// SetDefaultAddress handles POST /api/v1/addresses/:id/default.
func (h *Handlers) SetDefaultAddress(c *gin.Context) {
	if err := h.addresses.SetDefaultAddress(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "default address set", nil)
}
