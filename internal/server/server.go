// Package server wires the gin engine, middleware and routes.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/config"
	"github.com/feiradireta/feiradireta-api/internal/handlers"
	"github.com/feiradireta/feiradireta-api/internal/metrics"
	"github.com/feiradireta/feiradireta-api/internal/models"
)

// Server owns the HTTP listener lifecycle.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
}

// New builds the router and configures the underlying http.Server.
func New(h *handlers.Handlers, db *sql.DB, cfg *config.Config, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(handlers.AccessLog(logger))
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-User-ID", "X-User-Role", "X-Request-ID"},
	}))
	router.Use(handlers.Identity())

	router.GET("/health", handlers.Health)
	router.GET("/ready", handlers.Ready(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/categories", h.ListCategories)

		authed := v1.Group("")
		authed.Use(handlers.RequireUser())
		{
			authed.GET("/cart", h.GetCart)
			authed.POST("/cart/items", h.AddCartItem)
			authed.PATCH("/cart/items/:id", h.UpdateCartItem)
			authed.DELETE("/cart/items/:id", h.RemoveCartItem)

			authed.GET("/addresses", h.ListAddresses)
			authed.POST("/addresses", h.CreateAddress)
			authed.POST("/addresses/:id/default", h.SetDefaultAddress)

			authed.POST("/orders", h.PlaceOrder)
			authed.GET("/orders", h.ListOrders)
			authed.GET("/orders/:id", h.GetOrder)
			authed.POST("/orders/:id/cancel", h.CancelOrder)

			authed.PATCH("/orders/:id/status",
				handlers.RequireRole(models.RoleProducer, models.RoleAdmin),
				h.UpdateOrderStatus,
			)
		}
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start begins serving; blocks until the listener stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
