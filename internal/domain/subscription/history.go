package subscription

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEventType enumerates everything that can happen to a subscription.
type HistoryEventType string

const (
	HistoryEventCreated            HistoryEventType = "created"
	HistoryEventActivated          HistoryEventType = "activated"
	HistoryEventUpgraded           HistoryEventType = "upgraded"
	HistoryEventDowngraded         HistoryEventType = "downgraded"
	HistoryEventDowngradeScheduled HistoryEventType = "downgrade_scheduled"
	HistoryEventCancelled          HistoryEventType = "cancelled"
	HistoryEventSuspended          HistoryEventType = "suspended"
	HistoryEventResumed            HistoryEventType = "resumed"
	HistoryEventRenewed            HistoryEventType = "renewed"
	HistoryEventExpired            HistoryEventType = "expired"
)

var ValidHistoryEventTypes = map[HistoryEventType]bool{
	HistoryEventCreated:            true,
	HistoryEventActivated:          true,
	HistoryEventUpgraded:           true,
	HistoryEventDowngraded:         true,
	HistoryEventDowngradeScheduled: true,
	HistoryEventCancelled:          true,
	HistoryEventSuspended:          true,
	HistoryEventResumed:            true,
	HistoryEventRenewed:            true,
	HistoryEventExpired:            true,
}

var ErrInvalidHistoryEventType = errors.New("invalid history event type")

// HistoryPayload is the tagged union of event-specific metadata. Each entry's
// payload type is statically known from its event type while the history
// sequence itself stays heterogeneous.
type HistoryPayload interface {
	HistoryEventType() HistoryEventType
}

// CreationPayload records the plan and cycle a subscription was opened with.
type CreationPayload struct {
	PlanName     string `json:"plan_name"`
	BillingCycle string `json:"billing_cycle"`
}

func (CreationPayload) HistoryEventType() HistoryEventType { return HistoryEventCreated }

// ActivationPayload records the payment that turned the subscription on.
type ActivationPayload struct {
	TransactionRef string          `json:"transaction_ref"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
}

func (ActivationPayload) HistoryEventType() HistoryEventType { return HistoryEventActivated }

// UpgradePayload records a plan upgrade. AdditionalDue is the outstanding
// balance created by the upgrade policy: the full new cycle price applies and
// no mid-cycle credit is carried forward.
type UpgradePayload struct {
	OldPlanID     uint            `json:"old_plan_id"`
	NewPlanID     uint            `json:"new_plan_id"`
	OldPlanName   string          `json:"old_plan_name"`
	NewPlanName   string          `json:"new_plan_name"`
	AdditionalDue decimal.Decimal `json:"additional_due"`
}

func (UpgradePayload) HistoryEventType() HistoryEventType { return HistoryEventUpgraded }

// DowngradePayload records an applied downgrade and its refund-eligible credit.
type DowngradePayload struct {
	OldPlanID   uint            `json:"old_plan_id"`
	NewPlanID   uint            `json:"new_plan_id"`
	OldPlanName string          `json:"old_plan_name"`
	NewPlanName string          `json:"new_plan_name"`
	Credit      decimal.Decimal `json:"credit"`
}

func (DowngradePayload) HistoryEventType() HistoryEventType { return HistoryEventDowngraded }

// DowngradeSchedulePayload records a downgrade deferred to a future date. The
// state machine is invoked again at cycle rollover to apply it.
type DowngradeSchedulePayload struct {
	OldPlanID     uint      `json:"old_plan_id"`
	NewPlanID     uint      `json:"new_plan_id"`
	NewPlanName   string    `json:"new_plan_name"`
	Scheduled     bool      `json:"scheduled"`
	EffectiveDate time.Time `json:"effective_date"`
}

func (DowngradeSchedulePayload) HistoryEventType() HistoryEventType {
	return HistoryEventDowngradeScheduled
}

// CancellationPayload records the cancellation decision.
type CancellationPayload struct {
	Reason         string          `json:"reason"`
	EffectiveDate  time.Time       `json:"effective_date"`
	RefundEligible bool            `json:"refund_eligible"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
}

func (CancellationPayload) HistoryEventType() HistoryEventType { return HistoryEventCancelled }

// SuspensionPayload records why service was paused.
type SuspensionPayload struct {
	Reason string `json:"reason"`
}

func (SuspensionPayload) HistoryEventType() HistoryEventType { return HistoryEventSuspended }

// ResumePayload marks a suspended subscription returning to service.
type ResumePayload struct{}

func (ResumePayload) HistoryEventType() HistoryEventType { return HistoryEventResumed }

// RenewalPayload records a cycle extension and the renewal charge.
type RenewalPayload struct {
	OldEndDate time.Time       `json:"old_end_date"`
	NewEndDate time.Time       `json:"new_end_date"`
	Amount     decimal.Decimal `json:"amount"`
}

func (RenewalPayload) HistoryEventType() HistoryEventType { return HistoryEventRenewed }

// ExpiryPayload marks the cycle boundary that ended the subscription.
type ExpiryPayload struct {
	ExpiredAt time.Time `json:"expired_at"`
}

func (ExpiryPayload) HistoryEventType() HistoryEventType { return HistoryEventExpired }

// HistoryEntry is one immutable record in the subscription's audit trail.
// Entries are only ever appended, in the order their causing operations
// commit.
type HistoryEntry struct {
	id             uint
	subscriptionID uint
	eventType      HistoryEventType
	description    string
	actor          string
	payload        HistoryPayload
	createdAt      time.Time
}

func newHistoryEntry(eventType HistoryEventType, description, actorLabel string, payload HistoryPayload, at time.Time) *HistoryEntry {
	return &HistoryEntry{
		eventType:   eventType,
		description: description,
		actor:       actorLabel,
		payload:     payload,
		createdAt:   at,
	}
}

// ReconstructHistoryEntry rebuilds a persisted history row.
func ReconstructHistoryEntry(id, subscriptionID uint, eventType HistoryEventType,
	description, actorLabel string, payload HistoryPayload, createdAt time.Time) (*HistoryEntry, error) {

	if id == 0 {
		return nil, errors.New("history ID cannot be zero")
	}
	if subscriptionID == 0 {
		return nil, errors.New("subscription ID cannot be zero")
	}
	if !ValidHistoryEventTypes[eventType] {
		return nil, ErrInvalidHistoryEventType
	}

	return &HistoryEntry{
		id:             id,
		subscriptionID: subscriptionID,
		eventType:      eventType,
		description:    description,
		actor:          actorLabel,
		payload:        payload,
		createdAt:      createdAt,
	}, nil
}

func (h *HistoryEntry) ID() uint                    { return h.id }
func (h *HistoryEntry) SubscriptionID() uint        { return h.subscriptionID }
func (h *HistoryEntry) EventType() HistoryEventType { return h.eventType }
func (h *HistoryEntry) Description() string         { return h.description }
func (h *HistoryEntry) Actor() string               { return h.actor }
func (h *HistoryEntry) Payload() HistoryPayload     { return h.payload }
func (h *HistoryEntry) CreatedAt() time.Time        { return h.createdAt }

// bindTo stamps the owning subscription ID on a pending entry at persist time.
func (h *HistoryEntry) bindTo(subscriptionID uint) {
	if h.subscriptionID == 0 {
		h.subscriptionID = subscriptionID
	}
}

// BindTo is the persistence-layer hook for stamping the owning subscription.
func (h *HistoryEntry) BindTo(subscriptionID uint) {
	h.bindTo(subscriptionID)
}
