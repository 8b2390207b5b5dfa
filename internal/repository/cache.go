package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/models"
)

const (
	orderKeyPrefix   = "order:"
	buyerOrdersKey   = "buyer_orders:"
	productKeyPrefix = "product:"
	defaultCacheTTL  = 5 * time.Minute

	// Catalog data goes stale fast (stock moves with every order), so the
	// browse cache keeps a much shorter TTL than the order cache. Checkout
	// never reads from here.
	productCacheTTL = 30 * time.Second
)

// RedisCache is a read-through cache for orders and product display data.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to Redis with the given configuration.
func NewRedisCache(cfg config.RedisConfig, logger *zap.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetOrder retrieves an order from cache; (nil, nil) on a miss.
func (c *RedisCache) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("order cache get failed", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SetOrder stores an order in cache.
func (c *RedisCache) SetOrder(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, orderKeyPrefix+order.ID, data, c.ttl).Err(); err != nil {
		c.logger.Warn("order cache set failed", zap.String("order_id", order.ID), zap.Error(err))
		return err
	}
	return nil
}

// DeleteOrder drops an order from cache after a mutation.
func (c *RedisCache) DeleteOrder(ctx context.Context, id string) error {
	return c.client.Del(ctx, orderKeyPrefix+id).Err()
}

// InvalidateBuyerOrders drops the buyer's cached first page of orders.
func (c *RedisCache) InvalidateBuyerOrders(ctx context.Context, buyerID string) error {
	return c.client.Del(ctx, buyerOrdersKey+buyerID).Err()
}

// GetBuyerOrders retrieves the buyer's cached first page; (nil, nil) on a miss.
func (c *RedisCache) GetBuyerOrders(ctx context.Context, buyerID string) ([]*models.Order, error) {
	data, err := c.client.Get(ctx, buyerOrdersKey+buyerID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var orders []*models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SetBuyerOrders caches the buyer's first page of orders.
func (c *RedisCache) SetBuyerOrders(ctx context.Context, buyerID string, orders []*models.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, buyerOrdersKey+buyerID, data, c.ttl).Err()
}

// GetProduct retrieves a product from the browse cache; (nil, nil) on a miss.
func (c *RedisCache) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	data, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// SetProduct stores a product in the browse cache.
func (c *RedisCache) SetProduct(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKeyPrefix+product.ID, data, productCacheTTL).Err()
}

// Ping verifies the Redis connection, used by the readiness probe.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
