package planrequest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/shared/id"
)

type RequestType string

const (
	TypeNewSubscription    RequestType = "new_subscription"
	TypePlanChange         RequestType = "plan_change"
	TypePlanUpgrade        RequestType = "plan_upgrade"
	TypePlanDowngrade      RequestType = "plan_downgrade"
	TypeCancelSubscription RequestType = "cancel_subscription"
)

var ValidRequestTypes = map[RequestType]bool{
	TypeNewSubscription:    true,
	TypePlanChange:         true,
	TypePlanUpgrade:        true,
	TypePlanDowngrade:      true,
	TypeCancelSubscription: true,
}

func (t RequestType) String() string { return string(t) }

// RequiresTargetPlan reports whether the request type names a plan to move to.
func (t RequestType) RequiresTargetPlan() bool {
	return t != TypeCancelSubscription
}

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

func (s RequestStatus) String() string { return string(s) }

// IsTerminal reports whether the request has been finally resolved. Approved
// is terminal for customers but can be reverted by compensation when
// execution against the subscription fails.
func (s RequestStatus) IsTerminal() bool {
	return s != StatusPending
}

// PricingQuote freezes the money consequences of a request at submission
// time so the reviewer decides on the same numbers the customer saw.
type PricingQuote struct {
	currentTotal    decimal.Decimal
	newTotal        decimal.Decimal
	priceDifference decimal.Decimal
	currency        string
}

func NewPricingQuote(currentTotal, newTotal decimal.Decimal, currency string) PricingQuote {
	return PricingQuote{
		currentTotal:    currentTotal,
		newTotal:        newTotal,
		priceDifference: newTotal.Sub(currentTotal),
		currency:        currency,
	}
}

// ReconstructPricingQuote rebuilds a persisted quote without recomputing the
// difference.
func ReconstructPricingQuote(currentTotal, newTotal, priceDifference decimal.Decimal, currency string) PricingQuote {
	return PricingQuote{
		currentTotal:    currentTotal,
		newTotal:        newTotal,
		priceDifference: priceDifference,
		currency:        currency,
	}
}

func (q PricingQuote) CurrentTotal() decimal.Decimal    { return q.currentTotal }
func (q PricingQuote) NewTotal() decimal.Decimal        { return q.newTotal }
func (q PricingQuote) PriceDifference() decimal.Decimal { return q.priceDifference }
func (q PricingQuote) Currency() string                 { return q.currency }

// IsRevenuePositive reports whether approving the request increases the
// recurring charge.
func (q PricingQuote) IsRevenuePositive() bool {
	return q.priceDifference.IsPositive()
}

// AdminAction records the reviewer decision on a request.
type AdminAction struct {
	ReviewerID    uint
	DecidedAt     time.Time
	Comments      string
	InternalNotes string
}

// AuditEntry is one line in the request's append-only audit trail.
type AuditEntry struct {
	Action    string
	Actor     string
	Note      string
	CreatedAt time.Time
}

// Request is a customer-initiated lifecycle change waiting for admin review.
// A customer holds at most one pending request at a time; the repository
// enforces that at write time.
type Request struct {
	id              uint
	sid             string
	customerID      uint
	subscriptionID  *uint
	requestType     RequestType
	currentPlanID   *uint
	requestedPlanID *uint
	reason          string
	urgency         Urgency
	priority        int
	status          RequestStatus
	quote           PricingQuote

	// autoApprovalEligible marks revenue-positive upgrades that policy allows
	// to skip manual review. Eligibility is advisory; execution still goes
	// through the approval path.
	autoApprovalEligible bool

	adminAction *AdminAction
	auditTrail  []AuditEntry

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewRequestParams carries submission input into the aggregate.
type NewRequestParams struct {
	CustomerID      uint
	SubscriptionID  *uint
	RequestType     RequestType
	CurrentPlanID   *uint
	RequestedPlanID *uint
	Reason          string
	Urgency         Urgency
	Quote           PricingQuote
}

func NewRequest(p NewRequestParams) (*Request, error) {
	if p.CustomerID == 0 {
		return nil, fmt.Errorf("customer ID is required")
	}
	if !ValidRequestTypes[p.RequestType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequestType, p.RequestType)
	}
	if !ValidUrgencies[p.Urgency] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUrgency, p.Urgency)
	}
	if p.RequestType.RequiresTargetPlan() && p.RequestedPlanID == nil {
		return nil, fmt.Errorf("requested plan is required for %s requests", p.RequestType)
	}
	if p.RequestType != TypeNewSubscription && p.SubscriptionID == nil {
		return nil, fmt.Errorf("subscription is required for %s requests", p.RequestType)
	}

	now := time.Now().UTC()
	r := &Request{
		sid:                  id.MustGenerateWithPrefix(id.PrefixPlanRequest, id.DefaultLength),
		customerID:           p.CustomerID,
		subscriptionID:       p.SubscriptionID,
		requestType:          p.RequestType,
		currentPlanID:        p.CurrentPlanID,
		requestedPlanID:      p.RequestedPlanID,
		reason:               p.Reason,
		urgency:              p.Urgency,
		priority:             PriorityFor(p.RequestType, p.Urgency),
		status:               StatusPending,
		quote:                p.Quote,
		autoApprovalEligible: p.RequestType == TypePlanUpgrade && p.Quote.IsRevenuePositive(),
		version:              1,
		createdAt:            now,
		updatedAt:            now,
	}

	r.appendAudit("submitted", "customer", p.Reason)

	return r, nil
}

// ReconstructParams carries persisted request state back into the aggregate.
type ReconstructParams struct {
	ID                   uint
	SID                  string
	CustomerID           uint
	SubscriptionID       *uint
	RequestType          RequestType
	CurrentPlanID        *uint
	RequestedPlanID      *uint
	Reason               string
	Urgency              Urgency
	Priority             int
	Status               RequestStatus
	Quote                PricingQuote
	AutoApprovalEligible bool
	AdminAction          *AdminAction
	AuditTrail           []AuditEntry
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func Reconstruct(p ReconstructParams) (*Request, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("request ID cannot be zero")
	}
	if !ValidRequestTypes[p.RequestType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequestType, p.RequestType)
	}

	return &Request{
		id:                   p.ID,
		sid:                  p.SID,
		customerID:           p.CustomerID,
		subscriptionID:       p.SubscriptionID,
		requestType:          p.RequestType,
		currentPlanID:        p.CurrentPlanID,
		requestedPlanID:      p.RequestedPlanID,
		reason:               p.Reason,
		urgency:              p.Urgency,
		priority:             p.Priority,
		status:               p.Status,
		quote:                p.Quote,
		autoApprovalEligible: p.AutoApprovalEligible,
		adminAction:          p.AdminAction,
		auditTrail:           p.AuditTrail,
		version:              p.Version,
		createdAt:            p.CreatedAt,
		updatedAt:            p.UpdatedAt,
	}, nil
}

func (r *Request) ID() uint                   { return r.id }
func (r *Request) SID() string                { return r.sid }
func (r *Request) CustomerID() uint           { return r.customerID }
func (r *Request) SubscriptionID() *uint      { return r.subscriptionID }
func (r *Request) RequestType() RequestType   { return r.requestType }
func (r *Request) CurrentPlanID() *uint       { return r.currentPlanID }
func (r *Request) RequestedPlanID() *uint     { return r.requestedPlanID }
func (r *Request) Reason() string             { return r.reason }
func (r *Request) Urgency() Urgency           { return r.urgency }
func (r *Request) Priority() int              { return r.priority }
func (r *Request) Status() RequestStatus      { return r.status }
func (r *Request) Quote() PricingQuote        { return r.quote }
func (r *Request) AutoApprovalEligible() bool { return r.autoApprovalEligible }
func (r *Request) AdminAction() *AdminAction  { return r.adminAction }
func (r *Request) AuditTrail() []AuditEntry   { return r.auditTrail }
func (r *Request) Version() int               { return r.version }
func (r *Request) CreatedAt() time.Time       { return r.createdAt }
func (r *Request) UpdatedAt() time.Time       { return r.updatedAt }

// SetID sets the request ID (only for persistence layer use)
func (r *Request) SetID(reqID uint) error {
	if r.id != 0 {
		return fmt.Errorf("request ID is already set")
	}
	if reqID == 0 {
		return fmt.Errorf("request ID cannot be zero")
	}
	r.id = reqID
	return nil
}

// touch stamps the mutation time. The optimistic-lock version stays at its
// loaded value; the repository bumps it when the write commits.
func (r *Request) touch() {
	r.updatedAt = time.Now().UTC()
}

// CommitVersion advances the optimistic-lock token after a successful
// repository commit, keeping the loaded aggregate usable for a follow-up
// write.
func (r *Request) CommitVersion() {
	r.version++
}

func (r *Request) appendAudit(action, actor, note string) {
	r.auditTrail = append(r.auditTrail, AuditEntry{
		Action:    action,
		Actor:     actor,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	})
}

// Approve records the reviewer decision. Execution against the subscription
// happens in the application layer after this succeeds.
func (r *Request) Approve(reviewerID uint, comments, internalNotes string) error {
	if r.status != StatusPending {
		return fmt.Errorf("%w: cannot approve a %s request", ErrInvalidRequestState, r.status)
	}

	r.status = StatusApproved
	r.adminAction = &AdminAction{
		ReviewerID:    reviewerID,
		DecidedAt:     time.Now().UTC(),
		Comments:      comments,
		InternalNotes: internalNotes,
	}
	r.touch()
	r.appendAudit("approved", fmt.Sprintf("admin:%d", reviewerID), comments)

	return nil
}

// AutoApprove records a policy approval with no human reviewer.
func (r *Request) AutoApprove() error {
	if r.status != StatusPending {
		return fmt.Errorf("%w: cannot approve a %s request", ErrInvalidRequestState, r.status)
	}
	if !r.autoApprovalEligible {
		return fmt.Errorf("%w: request is not auto-approval eligible", ErrInvalidRequestState)
	}

	r.status = StatusApproved
	r.adminAction = &AdminAction{
		DecidedAt: time.Now().UTC(),
		Comments:  "auto-approved by policy",
	}
	r.touch()
	r.appendAudit("approved", "system", "auto-approved: revenue-positive upgrade")

	return nil
}

// Reject closes the request without touching the subscription.
func (r *Request) Reject(reviewerID uint, comments, internalNotes string) error {
	if r.status != StatusPending {
		return fmt.Errorf("%w: cannot reject a %s request", ErrInvalidRequestState, r.status)
	}
	if comments == "" {
		return fmt.Errorf("rejection comments are required")
	}

	r.status = StatusRejected
	r.adminAction = &AdminAction{
		ReviewerID:    reviewerID,
		DecidedAt:     time.Now().UTC(),
		Comments:      comments,
		InternalNotes: internalNotes,
	}
	r.touch()
	r.appendAudit("rejected", fmt.Sprintf("admin:%d", reviewerID), comments)

	return nil
}

// CancelByCustomer withdraws a still-pending request. Only the submitting
// customer may do this.
func (r *Request) CancelByCustomer(customerID uint) error {
	if r.customerID != customerID {
		return ErrNotRequestOwner
	}
	if r.status != StatusPending {
		return fmt.Errorf("%w: cannot cancel a %s request", ErrInvalidRequestState, r.status)
	}

	r.status = StatusCancelled
	r.touch()
	r.appendAudit("cancelled", "customer", "withdrawn by customer")

	return nil
}

// RevertToPending compensates a failed execution: the approval is undone and
// the request returns to the queue with the failure recorded in its audit
// trail.
func (r *Request) RevertToPending(failureReason string) error {
	if r.status != StatusApproved {
		return fmt.Errorf("%w: cannot revert a %s request", ErrInvalidRequestState, r.status)
	}

	r.status = StatusPending
	r.adminAction = nil
	r.touch()
	r.appendAudit("reverted", "system", fmt.Sprintf("execution failed, approval rolled back: %s", failureReason))

	return nil
}
