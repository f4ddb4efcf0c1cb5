package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/api/handlers"
	"github.com/ripenred/checkout-api/internal/api/middleware"
	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/config"
	"github.com/ripenred/checkout-api/internal/repository"
	"github.com/ripenred/checkout-api/internal/service"
	"github.com/ripenred/checkout-api/internal/session"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, client *backend.Client, services *service.Services, sessions *session.Store, repos *repository.Repositories, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/products", handlers.HandleListProducts(client, logger))
		v1.GET("/products/:id", handlers.HandleGetProduct(client, logger))

		checkout := v1.Group("/checkout")
		checkout.Use(middleware.SessionMiddleware(sessions, logger))
		{
			checkout.GET("/cart", handlers.HandleGetCart(services, logger))
			checkout.POST("/cart/items", handlers.HandleAddCartItem(services, logger))
			checkout.PUT("/cart/items/:productId", handlers.HandleUpdateCartItem(services, logger))
			checkout.DELETE("/cart/items/:productId", handlers.HandleRemoveCartItem(services, logger))

			checkout.POST("/coupon", handlers.HandleApplyCoupon(services, logger))

			checkout.GET("/addresses", handlers.HandleListAddresses(services, logger))
			checkout.POST("/addresses", handlers.HandleSaveAddress(services, logger))

			checkout.POST("/payment", handlers.HandleInitiatePayment(services, logger))
			checkout.POST("/payment/verify", handlers.HandleVerifyPayment(services, logger))
			checkout.POST("/payment/return", handlers.HandlePaymentReturn(services, logger))
		}

		// Support tooling (requires an API key; only mounted when a
		// database is configured)
		if repos != nil && repos.Event != nil {
			support := v1.Group("/support")
			support.Use(middleware.SupportAuthMiddleware(repos, logger))
			{
				support.GET("/events", handlers.HandleListEvents(repos, logger))
			}
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
