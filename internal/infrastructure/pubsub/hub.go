package pubsub

import (
	"context"
	"sync"

	"bandwave/internal/domain/shared/events"
	"bandwave/internal/shared/logger"
)

// subscriberBuffer is the per-stream channel depth. A slow consumer loses
// events rather than blocking publishers; delivery is at-most-once.
const subscriberBuffer = 32

type subscriber struct {
	ch chan events.Event
}

// Hub fans lifecycle events out to in-process streams. A customer stream
// receives only that customer's events; admin streams receive everything.
// Publish never blocks: a full subscriber buffer drops the event for that
// subscriber only.
type Hub struct {
	mu        sync.RWMutex
	customers map[uint]map[*subscriber]struct{}
	admins    map[*subscriber]struct{}
	logger    logger.Interface
}

func NewHub(logger logger.Interface) *Hub {
	return &Hub{
		customers: make(map[uint]map[*subscriber]struct{}),
		admins:    make(map[*subscriber]struct{}),
		logger:    logger,
	}
}

// Subscribe opens a stream for one customer. The returned cancel function
// detaches the stream and closes its channel; it is safe to call more than
// once.
func (h *Hub) Subscribe(customerID uint) (<-chan events.Event, func()) {
	sub := &subscriber{ch: make(chan events.Event, subscriberBuffer)}

	h.mu.Lock()
	subs, ok := h.customers[customerID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.customers[customerID] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.customers[customerID]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.customers, customerID)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// SubscribeAdmin opens a stream that receives every event regardless of
// customer.
func (h *Hub) SubscribeAdmin() (<-chan events.Event, func()) {
	sub := &subscriber{ch: make(chan events.Event, subscriberBuffer)}

	h.mu.Lock()
	h.admins[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.admins, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers the event to the owning customer's streams and all admin
// streams. It never fails and never blocks.
func (h *Hub) Publish(_ context.Context, event events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.customers[event.CustomerID] {
		h.send(sub, event)
	}
	for sub := range h.admins {
		h.send(sub, event)
	}
}

func (h *Hub) send(sub *subscriber, event events.Event) {
	select {
	case sub.ch <- event:
	default:
		h.logger.Debugw("event dropped for slow subscriber",
			"event_id", event.ID,
			"event_type", event.Type,
			"customer_id", event.CustomerID,
		)
	}
}

// SubscriberCount reports attached streams, for diagnostics.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := len(h.admins)
	for _, subs := range h.customers {
		count += len(subs)
	}
	return count
}
