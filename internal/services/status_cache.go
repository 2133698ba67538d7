package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// StatusCache remembers recent non-final processor statuses so that repeated
// polls do not hit the processor every time.
type StatusCache interface {
	Get(ctx context.Context, paymentID string) (*ChargeStatus, bool)
	Set(ctx context.Context, paymentID string, status *ChargeStatus)
}

type RedisStatusCache struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewRedisStatusCache(client *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{Client: client, TTL: ttl, Prefix: "payments:status:"}
}

func (c *RedisStatusCache) Get(ctx context.Context, paymentID string) (*ChargeStatus, bool) {
	val, err := c.Client.Get(ctx, c.Prefix+paymentID).Bytes()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).WithField("payment_id", paymentID).Warn("status cache read failed")
		}
		return nil, false
	}
	var status ChargeStatus
	if err := json.Unmarshal(val, &status); err != nil {
		return nil, false
	}
	return &status, true
}

// Set stores status unless it is the paid status, which must always reach the reconciler.
func (c *RedisStatusCache) Set(ctx context.Context, paymentID string, status *ChargeStatus) {
	if status == nil || status.Status == GatewayStatusPaid || c.TTL <= 0 {
		return
	}
	val, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, c.Prefix+paymentID, val, c.TTL).Err(); err != nil {
		logrus.WithError(err).WithField("payment_id", paymentID).Warn("status cache write failed")
	}
}
