package notification

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appinventory "github.com/o4o-platform/inventory-engine/internal/application/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// RedisNotifier publishes alert notifications to a Redis channel where
// downstream consumers (mail, chat, webhooks) pick them up. Dispatch is
// asynchronous through a bounded queue: when the queue is full the
// notification is dropped and counted rather than blocking the raiser.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger

	queue   chan appinventory.AlertNotification
	dropped atomic.Int64
	wg      sync.WaitGroup
	done    chan struct{}
	once    sync.Once
}

// NewRedisNotifier creates a notifier and starts its dispatch worker
func NewRedisNotifier(client *redis.Client, channel string, queueSize int, logger *zap.Logger) *RedisNotifier {
	if queueSize < 1 {
		queueSize = 256
	}
	n := &RedisNotifier{
		client:  client,
		channel: channel,
		logger:  logger,
		queue:   make(chan appinventory.AlertNotification, queueSize),
		done:    make(chan struct{}),
	}
	n.wg.Add(1)
	go n.dispatchLoop()
	return n
}

// Notify enqueues the notification for asynchronous delivery. A full queue
// drops the notification and returns ErrDispatchFailed so the caller can
// record the miss on the alert.
func (n *RedisNotifier) Notify(_ context.Context, payload appinventory.AlertNotification) error {
	select {
	case n.queue <- payload:
		return nil
	default:
		n.dropped.Add(1)
		n.logger.Warn("notification queue full, dropping",
			zap.String("alert_type", string(payload.AlertType)),
			zap.String("sku", payload.SKU))
		return shared.ErrDispatchFailed
	}
}

// Dropped returns how many notifications were dropped due to a full queue
func (n *RedisNotifier) Dropped() int64 {
	return n.dropped.Load()
}

// Close drains the queue and stops the dispatch worker
func (n *RedisNotifier) Close() error {
	n.once.Do(func() {
		close(n.done)
	})
	n.wg.Wait()
	return nil
}

func (n *RedisNotifier) dispatchLoop() {
	defer n.wg.Done()
	for {
		select {
		case payload := <-n.queue:
			n.publish(payload)
		case <-n.done:
			// drain what is already queued before stopping
			for {
				select {
				case payload := <-n.queue:
					n.publish(payload)
				default:
					return
				}
			}
		}
	}
}

func (n *RedisNotifier) publish(payload appinventory.AlertNotification) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to encode notification", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		n.logger.Error("failed to publish notification",
			zap.String("channel", n.channel),
			zap.String("alert_type", string(payload.AlertType)),
			zap.Error(err))
	}
}

var _ appinventory.Notifier = (*RedisNotifier)(nil)
