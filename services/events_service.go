package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/models"
)

// OrderEvent is the change notification published after every successful
// lifecycle transition. Open client and actor sessions subscribe to the
// per-order channel to refresh their view.
type OrderEvent struct {
	OrderCode string             `json:"order_code"`
	Status    models.OrderStatus `json:"status"`
	Event     string             `json:"event"`
	ChangedAt time.Time          `json:"changed_at"`
}

// channelFor returns the pub/sub channel name for one order.
func channelFor(orderCode string) string {
	return "orders:" + orderCode
}

// EventPublisher publishes order change events. Like notifications, publish
// failures are logged and swallowed; the state transition stands.
type EventPublisher interface {
	PublishOrderChange(ctx context.Context, event OrderEvent) error
}

var eventPublisherInstance EventPublisher

// RedisPublisher publishes order events over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// InitEventPublisher connects to Redis and installs the publisher. With no
// Redis address configured it installs a no-op publisher, so single-node
// deployments work without Redis.
func InitEventPublisher(cfg *config.Config) EventPublisher {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, order change events disabled")
		eventPublisherInstance = &noopPublisher{}
		return eventPublisherInstance
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	eventPublisherInstance = &RedisPublisher{client: client}
	return eventPublisherInstance
}

// GetEventPublisher returns the initialized event publisher instance
func GetEventPublisher() EventPublisher {
	return eventPublisherInstance
}

// SetEventPublisher sets the event publisher instance (primarily for testing)
func SetEventPublisher(p EventPublisher) {
	eventPublisherInstance = p
}

// PublishOrderChange publishes the event on the order's channel.
func (p *RedisPublisher) PublishOrderChange(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	if err := p.client.Publish(ctx, channelFor(event.OrderCode), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// SubscribeOrder subscribes to one order's change events. The caller owns the
// returned PubSub and must Close it.
func (p *RedisPublisher) SubscribeOrder(ctx context.Context, orderCode string) *redis.PubSub {
	return p.client.Subscribe(ctx, channelFor(orderCode))
}

type noopPublisher struct{}

func (noopPublisher) PublishOrderChange(ctx context.Context, event OrderEvent) error {
	return nil
}
