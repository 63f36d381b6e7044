package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge mirrors locally published events onto a Redis pub/sub
// channel and folds events from other instances back into the local
// hub, so every connected client sees every mutation regardless of
// which instance served it. Redis pub/sub keeps the broadcaster
// contract: no persistence, no replay, at-most-once.
type RedisBridge struct {
	hub     *Hub
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

// NewRedisBridge wraps the hub with cross-instance fan-out. The origin
// identifier is used to skip events this instance published itself.
func NewRedisBridge(hub *Hub, client *redis.Client, channel, origin string, logger *zap.Logger) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBridge{
		hub:     hub,
		client:  client,
		channel: channel,
		origin:  origin,
		logger:  logger,
	}
}

// Publish delivers locally first, then mirrors to Redis. A Redis
// failure is logged and swallowed: remote viewers reconcile on their
// next listing fetch, and the originating mutation must not fail.
func (b *RedisBridge) Publish(ctx context.Context, event Event) error {
	if event.Origin == "" {
		event.Origin = b.origin
	}
	if err := b.hub.Publish(ctx, event); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("marshal event for redis", zap.Error(err))
		return nil
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("mirror event to redis",
			zap.String("channel", b.channel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}

// Subscribe attaches a local subscriber.
func (b *RedisBridge) Subscribe(topic string) *Subscription {
	return b.hub.Subscribe(topic)
}

// Run consumes the Redis channel until the context is cancelled,
// replaying remote events into the local hub.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("discarding malformed event from redis", zap.Error(err))
				continue
			}
			if event.Origin == b.origin {
				continue
			}
			_ = b.hub.Publish(ctx, event)
		}
	}
}
