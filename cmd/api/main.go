package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/clients"
	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/events"
	"github.com/feiradireta/feiradireta-api/internal/handlers"
	"github.com/feiradireta/feiradireta-api/internal/repository"
	"github.com/feiradireta/feiradireta-api/internal/server"
	"github.com/feiradireta/feiradireta-api/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting feiradireta-api", zap.Int("port", cfg.Server.Port))

	db, err := repository.Open(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.RunMigrations(db, cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database ready",
		zap.String("host", cfg.Database.Host),
		zap.String("name", cfg.Database.Name),
	)

	cache := repository.NewRedisCache(cfg.Redis, logger.Named("cache"))
	defer cache.Close()

	txs := repository.NewTxStore(db, logger.Named("tx"))
	productRepo := repository.NewProductRepository(logger.Named("products"))
	cartRepo := repository.NewCartRepository(logger.Named("carts"))
	addressRepo := repository.NewAddressRepository(logger.Named("addresses"))
	orderRepo := repository.NewOrderRepository(logger.Named("orders"))

	publisher := events.NewKafkaPublisher(cfg.Kafka, logger.Named("events"))
	defer publisher.Close()

	var notifier service.NotificationSender = clients.NoopNotificationSender{}
	if cfg.Features.EnableNotifications {
		notifier = clients.NewHTTPNotificationClient(cfg.NotificationService, logger.Named("notifications"))
	}

	checkoutService := service.NewCheckoutService(
		txs, db, cartRepo, productRepo, addressRepo, orderRepo,
		cache, publisher, notifier, cfg, logger.Named("checkout"),
	)
	orderService := service.NewOrderService(
		txs, db, orderRepo, cache, publisher, notifier, cfg, logger.Named("orders"),
	)
	catalogService := service.NewCatalogService(db, productRepo, cache, cfg, logger.Named("catalog"))
	cartService := service.NewCartService(db, cartRepo, productRepo, logger.Named("cart"))
	addressService := service.NewAddressService(db, addressRepo, logger.Named("addresses"))

	h := handlers.New(checkoutService, orderService, catalogService, cartService, addressService, cfg, logger)

	srv := server.New(h, db, cfg, logger)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
