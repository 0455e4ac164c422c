package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appinventory "github.com/o4o-platform/inventory-engine/internal/application/inventory"
)

// ReplenishmentChannel is the pub/sub channel the procurement service
// subscribes to.
const ReplenishmentChannel = "inventory:replenishment"

// RedisPurchaseRequester hands replenishment requests to procurement over a
// Redis channel. Delivery is fire-and-forget; procurement owns retries.
type RedisPurchaseRequester struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPurchaseRequester creates a purchase requester on the given channel.
// An empty channel falls back to ReplenishmentChannel.
func NewRedisPurchaseRequester(client *redis.Client, channel string, logger *zap.Logger) *RedisPurchaseRequester {
	if channel == "" {
		channel = ReplenishmentChannel
	}
	return &RedisPurchaseRequester{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

var _ appinventory.PurchaseRequester = (*RedisPurchaseRequester)(nil)

// RequestReplenishment publishes the request as JSON
func (r *RedisPurchaseRequester) RequestReplenishment(ctx context.Context, req appinventory.ReplenishmentRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal replenishment request: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Error("failed to publish replenishment request",
			zap.String("channel", r.channel),
			zap.String("sku", req.SKU),
			zap.Error(err))
		return fmt.Errorf("publish replenishment request: %w", err)
	}
	r.logger.Info("replenishment request published",
		zap.String("sku", req.SKU),
		zap.Int("quantity", req.Quantity))
	return nil
}
