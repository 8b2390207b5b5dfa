// Package apperrors defines the typed error taxonomy shared by the service
// layer and translated into HTTP responses by the handlers.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned when checkout is attempted against a cart
	// with no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrAddressNotFound is returned when the supplied delivery address id
	// does not exist or does not belong to the buyer.
	ErrAddressNotFound = errors.New("delivery address not found")

	// ErrNoDeliveryAddress is returned when no address id was supplied and
	// the buyer has no default address.
	ErrNoDeliveryAddress = errors.New("no delivery address configured")

	// ErrOrderNotFound is returned when an order id does not resolve.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotCancellable is returned when cancellation is requested for
	// an order that is past the cancellable states.
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")

	// ErrOrderAlreadyFinalized is returned when a status update targets an
	// order that is already delivered or cancelled.
	ErrOrderAlreadyFinalized = errors.New("order is already finalized")
)

// ProductUnavailableError indicates a cart line references a product that is
// inactive or no longer exists.
type ProductUnavailableError struct {
	ProductName string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is unavailable", e.ProductName)
}

// InsufficientStockError indicates a cart line requests more units than the
// product currently has in stock.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available", e.ProductName, e.Available)
}

// InvalidStatusError indicates a status update targeted a value outside the
// allowed transition set.
type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Status)
}

// TransactionFailureError wraps infrastructure-level transaction failures
// (begin, commit, lock timeout, connection loss). The cause is logged by the
// caller but never surfaced to clients.
type TransactionFailureError struct {
	Err error
}

func (e *TransactionFailureError) Error() string {
	return "transaction failed"
}

func (e *TransactionFailureError) Unwrap() error {
	return e.Err
}

// NewTransactionFailure wraps err unless it is already part of the domain
// taxonomy, so a rollback triggered by a domain error surfaces the
// originating error rather than a generic one.
func NewTransactionFailure(err error) error {
	if IsDomainError(err) {
		return err
	}
	return &TransactionFailureError{Err: err}
}

// IsDomainError reports whether err belongs to the domain taxonomy, as
// opposed to an infrastructure failure.
func IsDomainError(err error) bool {
	var (
		unavailable  *ProductUnavailableError
		insufficient *InsufficientStockError
		invalid      *InvalidStatusError
	)
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrAddressNotFound),
		errors.Is(err, ErrNoDeliveryAddress),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrOrderNotCancellable),
		errors.Is(err, ErrOrderAlreadyFinalized):
		return true
	case errors.As(err, &unavailable),
		errors.As(err, &insufficient),
		errors.As(err, &invalid):
		return true
	}
	return false
}

// ValidationError carries a field-level request validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
