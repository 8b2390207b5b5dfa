package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
)

// Response is the uniform envelope every endpoint returns.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Errors     any         `json:"errors,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes a page of a list response.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func respondPage(c *gin.Context, message string, data any, pagination Pagination) {
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: &pagination,
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: message})
}

func respondNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{Success: false, Message: message})
}

// respondError maps the error taxonomy onto HTTP statuses. Infrastructure
// failures are logged upstream and surfaced without internal detail.
func respondError(c *gin.Context, err error) {
	var (
		validationErr   *apperrors.ValidationError
		unavailableErr  *apperrors.ProductUnavailableError
		insufficientErr *apperrors.InsufficientStockError
		invalidErr      *apperrors.InvalidStatusError
		txErr           *apperrors.TransactionFailureError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "validation failed",
			Errors:  gin.H{validationErr.Field: validationErr.Message},
		})
	case errors.As(err, &invalidErr):
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: invalidErr.Error()})
	case errors.Is(err, apperrors.ErrOrderNotFound),
		errors.Is(err, apperrors.ErrAddressNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Message: err.Error()})
	case errors.Is(err, apperrors.ErrEmptyCart),
		errors.Is(err, apperrors.ErrNoDeliveryAddress):
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Message: err.Error()})
	case errors.As(err, &unavailableErr),
		errors.As(err, &insufficientErr):
		c.JSON(http.StatusConflict, Response{Success: false, Message: err.Error()})
	case errors.Is(err, apperrors.ErrOrderNotCancellable),
		errors.Is(err, apperrors.ErrOrderAlreadyFinalized):
		c.JSON(http.StatusConflict, Response{Success: false, Message: err.Error()})
	case errors.As(err, &txErr):
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Message: "temporary failure, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, Response{Success: false, Message: "internal server error"})
	}
}
