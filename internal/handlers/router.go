package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"creator-payments/internal/logger"
	"creator-payments/internal/services"
	"creator-payments/pkg/common"
)

type RouterConfig struct {
	Payments    *services.PaymentService
	JWTSecret   string
	RateLimiter *IPRateLimiter
	// Health reports whether backing stores are reachable; nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware())

	payments := NewPaymentHandler(cfg.Payments)
	users := NewUserHandler(cfg.Payments)
	limit := RateLimit(cfg.RateLimiter)
	auth := RequireOwner(cfg.JWTSecret)

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(cfg.Health))

	// the processor is not rate limited; its deliveries are authenticated instead
	api.POST("/payment/webhook", payments.Webhook)

	payment := api.Group("/payment", limit)
	payment.POST("/generate", OptionalOwner(cfg.JWTSecret), payments.Generate)
	payment.GET("/status/:transactionId", payments.Status)

	user := api.Group("/user", limit, auth)
	user.POST("/upgrade", users.Upgrade)
	user.GET("/me/balance", users.Balance)
	user.GET("/me/transactions", users.Transactions)

	return r
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.FromContext(c).WithError(err).Warn("health check failed")
				c.JSON(http.StatusServiceUnavailable, common.NewHealthResponse(false, time.Now()))
				return
			}
		}
		c.JSON(http.StatusOK, common.NewHealthResponse(true, time.Now()))
	}
}
