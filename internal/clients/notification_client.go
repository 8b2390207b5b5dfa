// Package clients holds HTTP clients for collaborating services.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/models"
)

// HTTPNotificationClient delivers order notifications through the
// notification service. Failures are the caller's to log; nothing here blocks
// an order from completing.
type HTTPNotificationClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPNotificationClient creates a notification client.
func NewHTTPNotificationClient(cfg config.ServiceConfig, logger *zap.Logger) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type notificationRequest struct {
	Type      string            `json:"type"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SendOrderConfirmation notifies the buyer their order was received.
func (c *HTTPNotificationClient) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	return c.send(ctx, &notificationRequest{
		Type:      "order_confirmation",
		Recipient: order.BuyerID,
		Subject:   "Pedido recebido",
		Body:      fmt.Sprintf("Seu pedido %s foi recebido e está aguardando confirmação.", order.ID),
		Metadata: map[string]string{
			"order_id": order.ID,
			"total":    order.Total.StringFixed(2),
		},
	})
}

// SendOrderCancelled notifies the buyer their order was cancelled.
func (c *HTTPNotificationClient) SendOrderCancelled(ctx context.Context, order *models.Order) error {
	return c.send(ctx, &notificationRequest{
		Type:      "order_cancelled",
		Recipient: order.BuyerID,
		Subject:   "Pedido cancelado",
		Body:      fmt.Sprintf("Seu pedido %s foi cancelado.", order.ID),
		Metadata:  map[string]string{"order_id": order.ID},
	})
}

// SendOrderDelivered notifies the buyer their order arrived.
func (c *HTTPNotificationClient) SendOrderDelivered(ctx context.Context, order *models.Order) error {
	return c.send(ctx, &notificationRequest{
		Type:      "order_delivered",
		Recipient: order.BuyerID,
		Subject:   "Pedido entregue",
		Body:      fmt.Sprintf("Seu pedido %s foi entregue.", order.ID),
		Metadata:  map[string]string{"order_id": order.ID},
	})
}

func (c *HTTPNotificationClient) send(ctx context.Context, notification *notificationRequest) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification service returned %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent",
		zap.String("type", notification.Type),
		zap.String("recipient", notification.Recipient),
	)

	return nil
}

// NoopNotificationSender satisfies the notification contract when the feature
// flag is off or no notification service is deployed.
type NoopNotificationSender struct{}

func (NoopNotificationSender) SendOrderConfirmation(context.Context, *models.Order) error { return nil }
func (NoopNotificationSender) SendOrderCancelled(context.Context, *models.Order) error    { return nil }
func (NoopNotificationSender) SendOrderDelivered(context.Context, *models.Order) error    { return nil }
