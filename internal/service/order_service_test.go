package service

import (
	"context"
	"errors"
	"testing"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/models"
)

func TestUpdateStatus_RejectsInvalidTarget(t *testing.T) {
	svc, _, _ := newOrderFixture()

	tests := []struct {
		name   string
		target models.OrderStatus
	}{
		{"pending is not a target", models.OrderStatusPending},
		{"cancelled has its own endpoint", models.OrderStatusCancelled},
		{"unknown value", models.OrderStatus("refunded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(context.Background(), "ord_1", tt.target)

			var invalid *apperrors.InvalidStatusError
			if !errors.As(err, &invalid) {
				t.Errorf("expected InvalidStatusError, got %v", err)
			}
		})
	}
}

func TestUpdateStatus_Succeeds(t *testing.T) {
	svc, store, publisher := newOrderFixture()
	store.orders["ord_1"] = &models.Order{
		ID:      "ord_1",
		BuyerID: "usr_buyer",
		Status:  models.OrderStatusPending,
	}

	order, err := svc.UpdateStatus(context.Background(), "ord_1", models.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Status != models.OrderStatusConfirmed {
		t.Errorf("expected confirmed, got %s", order.Status)
	}
	if store.orders["ord_1"].Status != models.OrderStatusConfirmed {
		t.Errorf("expected stored status confirmed, got %s", store.orders["ord_1"].Status)
	}
	if len(publisher.events) != 1 || publisher.events[0] != "order.status_changed" {
		t.Errorf("expected order.status_changed event, got %v", publisher.events)
	}
}

func TestUpdateStatus_DeliveredStampsTimestamp(t *testing.T) {
	svc, store, _ := newOrderFixture()
	store.orders["ord_1"] = &models.Order{
		ID:      "ord_1",
		BuyerID: "usr_buyer",
		Status:  models.OrderStatusShipped,
	}

	order, err := svc.UpdateStatus(context.Background(), "ord_1", models.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.DeliveredAt == nil {
		t.Error("expected delivered_at to be stamped")
	}
	if store.orders["ord_1"].DeliveredAt == nil {
		t.Error("expected stored delivered_at to be stamped")
	}
}

func TestUpdateStatus_FinalizedOrderRejected(t *testing.T) {
	tests := []struct {
		name   string
		status models.OrderStatus
	}{
		{"delivered order", models.OrderStatusDelivered},
		{"cancelled order", models.OrderStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newOrderFixture()
			store.orders["ord_1"] = &models.Order{
				ID:      "ord_1",
				BuyerID: "usr_buyer",
				Status:  tt.status,
			}

			_, err := svc.UpdateStatus(context.Background(), "ord_1", models.OrderStatusConfirmed)
			if !errors.Is(err, apperrors.ErrOrderAlreadyFinalized) {
				t.Errorf("expected ErrOrderAlreadyFinalized, got %v", err)
			}
			if store.orders["ord_1"].Status != tt.status {
				t.Errorf("expected status unchanged, got %s", store.orders["ord_1"].Status)
			}
		})
	}
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	svc, _, _ := newOrderFixture()

	_, err := svc.UpdateStatus(context.Background(), "ord_missing", models.OrderStatusConfirmed)
	if !errors.Is(err, apperrors.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	svc, store, _ := newOrderFixture()
	store.orders["ord_1"] = &models.Order{
		ID:      "ord_1",
		BuyerID: "usr_buyer",
		Status:  models.OrderStatusPending,
	}

	if _, err := svc.GetOrder(context.Background(), "usr_buyer", "ord_1"); err != nil {
		t.Errorf("owner read failed: %v", err)
	}

	_, err := svc.GetOrder(context.Background(), "usr_other", "ord_1")
	if !errors.Is(err, apperrors.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound for other buyer, got %v", err)
	}

	// Empty requester id is the admin path and skips the ownership check.
	if _, err := svc.GetOrder(context.Background(), "", "ord_1"); err != nil {
		t.Errorf("admin read failed: %v", err)
	}
}

func TestListBuyerOrders_ClampsLimit(t *testing.T) {
	svc, store, _ := newOrderFixture()

	tests := []struct {
		name     string
		limit    int
		expected int
	}{
		{"zero defaults", 0, 20},
		{"negative defaults", -5, 20},
		{"over maximum clamps", 500, 100},
		{"in range passes through", 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.ListBuyerOrders(context.Background(), "usr_buyer", tt.limit, 0); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if store.lastListLimit != tt.expected {
				t.Errorf("expected limit %d, got %d", tt.expected, store.lastListLimit)
			}
		})
	}
}
