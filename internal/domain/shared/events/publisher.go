package events

import (
	"context"
	"time"

	"bandwave/internal/shared/id"
)

// EventType names a lifecycle notification fanned out to customer and admin
// streams.
type EventType string

const (
	TypeSubscriptionCreated   EventType = "subscription_created"
	TypeSubscriptionModified  EventType = "subscription_modified"
	TypeSubscriptionCancelled EventType = "subscription_cancelled"
	TypePlanRequestCreated    EventType = "plan_request_created"
	TypePlanRequestApproved   EventType = "plan_request_approved"
	TypePlanRequestRejected   EventType = "plan_request_rejected"
	TypePlanRequestCancelled  EventType = "plan_request_cancelled"
	TypeBillingUpdated        EventType = "billing_updated"
	TypeUsageAlert            EventType = "usage_alert"
	TypePaymentProcessed      EventType = "payment_processed"
)

func (t EventType) String() string { return string(t) }

// Event is one notification. CustomerID routes delivery: the owning
// customer's stream receives it, and admin streams receive everything.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	CustomerID uint           `json:"customer_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewEvent stamps an ID and timestamp onto a notification.
func NewEvent(eventType EventType, customerID uint, payload map[string]any) Event {
	return Event{
		ID:         id.MustGenerateWithPrefix(id.PrefixEvent, id.DefaultLength),
		Type:       eventType,
		CustomerID: customerID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers lifecycle events to whoever is listening. Publishing is
// best-effort and must never fail or block a state change that has already
// committed.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NoopPublisher discards events. It is the default wiring so the engine runs
// without any fan-out infrastructure.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (*NoopPublisher) Publish(context.Context, Event) {}
