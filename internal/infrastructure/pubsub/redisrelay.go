package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bandwave/internal/domain/shared/events"
	"bandwave/internal/shared/goroutine"
	"bandwave/internal/shared/logger"
)

const eventRelayChannel = "bandwave:events"

// relayEnvelope wraps an event for cross-instance delivery. InstanceID marks
// the source so an instance never re-delivers its own events.
type relayEnvelope struct {
	Event      events.Event `json:"event"`
	InstanceID string       `json:"instance_id"`
}

// RedisRelay mirrors events across instances through Redis Pub/Sub. Local
// delivery goes straight to the hub; the Redis leg is best-effort and never
// fails the publish.
type RedisRelay struct {
	client     *redis.Client
	hub        *Hub
	logger     logger.Interface
	instanceID string
}

func NewRedisRelay(client *redis.Client, hub *Hub, logger logger.Interface) *RedisRelay {
	return &RedisRelay{
		client:     client,
		hub:        hub,
		logger:     logger,
		instanceID: uuid.NewString(),
	}
}

// Publish delivers locally, then relays to other instances. The Redis leg
// runs off the caller's goroutine so a slow or unreachable broker never
// stalls the mutating operation that emitted the event.
func (r *RedisRelay) Publish(ctx context.Context, event events.Event) {
	r.hub.Publish(ctx, event)

	data, err := json.Marshal(relayEnvelope{Event: event, InstanceID: r.instanceID})
	if err != nil {
		r.logger.Warnw("failed to marshal event for relay",
			"event_id", event.ID,
			"error", err,
		)
		return
	}

	relayCtx := context.WithoutCancel(ctx)
	goroutine.SafeGo(r.logger, "event-relay-publish", func() {
		if err := r.client.Publish(relayCtx, eventRelayChannel, data).Err(); err != nil {
			r.logger.Warnw("failed to relay event to redis",
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err,
			)
			return
		}

		r.logger.Debugw("event relayed to redis",
			"event_id", event.ID,
			"event_type", event.Type,
		)
	})
}

// Run consumes relayed events from other instances until the context ends,
// reconnecting with exponential backoff on subscription failure.
func (r *RedisRelay) Run(ctx context.Context) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := r.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.logger.Warnw("event relay disconnected, reconnecting",
			"channel", eventRelayChannel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (r *RedisRelay) consume(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, eventRelayChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	r.logger.Infow("subscribed to event relay channel", "channel", eventRelayChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Infow("event relay stopped", "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				r.logger.Warnw("event relay channel closed")
				return nil
			}

			payload := msg.Payload
			goroutine.SafeGo(r.logger, "event-relay-handler", func() {
				r.deliver(ctx, payload)
			})
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, payload string) {
	var envelope relayEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		r.logger.Warnw("failed to unmarshal relayed event",
			"payload", payload,
			"error", err,
		)
		return
	}

	// Locally published events were already delivered to the hub.
	if envelope.InstanceID == r.instanceID {
		return
	}

	r.hub.Publish(ctx, envelope.Event)
}
