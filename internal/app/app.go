package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"creator-payments/internal/config"
	"creator-payments/internal/services"
)

// NewPaymentService wires the payment service from configuration. redisClient
// may be nil, in which case processor statuses are never cached.
func NewPaymentService(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*services.PaymentService, error) {
	verifier, err := services.NewWebhookVerifier(cfg.Gateway.WebhookVerification, cfg.Gateway.WebhookSecret)
	if err != nil {
		return nil, err
	}

	repo := services.NewRepository(db)
	gateway := services.NewAbacatePayService(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	fees := services.NewFeeCalculator(cfg.Fees.ProPercent, cfg.Fees.FreemiumPercent)

	svc := services.NewPaymentService(repo, repo, gateway, verifier, fees, services.PaymentOptions{
		UpgradePrice: cfg.Upgrade.Price,
		ProDuration:  cfg.Upgrade.Duration,
		ChargeExpiry: cfg.Gateway.ChargeExpiry,
	})
	if redisClient != nil && cfg.Reconcile.StatusCacheTTL > 0 {
		svc.StatusCache = services.NewRedisStatusCache(redisClient, cfg.Reconcile.StatusCacheTTL)
	}
	return svc, nil
}
