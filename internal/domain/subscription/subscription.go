package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bandwave/internal/domain/plan"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/shared/id"
)

// Subscription is the aggregate root owning subscription state, the pricing
// snapshot, and the append-only service and payment histories. Mutators
// enforce the legal transition table and bump the optimistic-lock version;
// the repository commits state + pricing + pending history atomically.
type Subscription struct {
	id           uint
	sid          string
	uuid         string
	customerID   uint
	planID       uint
	billingCycle vo.BillingCycle
	status       vo.SubscriptionStatus
	startDate    time.Time
	endDate      time.Time
	pricing      vo.PricingSnapshot

	// outstandingBalance is the amount owed immediately after an upgrade;
	// the upgrade policy charges the full new cycle price without crediting
	// unused time on the old plan.
	outstandingBalance decimal.Decimal

	scheduledPlanID    *uint
	scheduledEffective *time.Time

	cancellation *CancellationRecord

	pendingHistory  []*HistoryEntry
	pendingPayments []*PaymentRecord

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewSubscription opens a pending subscription for a customer on a plan.
// It becomes active on payment confirmation or admin activation.
func NewSubscription(customerID uint, p *plan.Plan, cycle vo.BillingCycle,
	startDate time.Time, pricing vo.PricingSnapshot) (*Subscription, error) {

	if customerID == 0 {
		return nil, fmt.Errorf("customer ID is required")
	}
	if p == nil || p.ID() == 0 {
		return nil, fmt.Errorf("plan is required")
	}
	if !cycle.IsValid() {
		return nil, fmt.Errorf("%w: %s", vo.ErrInvalidBillingCycle, cycle)
	}
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}

	now := time.Now().UTC()
	s := &Subscription{
		sid:                id.MustGenerateWithPrefix(id.PrefixSubscription, id.DefaultLength),
		uuid:               uuid.NewString(),
		customerID:         customerID,
		planID:             p.ID(),
		billingCycle:       cycle,
		status:             vo.StatusPending,
		startDate:          startDate,
		endDate:            cycle.NextBillingDate(startDate),
		pricing:            pricing,
		outstandingBalance: decimal.Zero,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}

	s.appendHistory(HistoryEventCreated,
		fmt.Sprintf("subscription created on plan %s", p.Name()),
		"customer",
		CreationPayload{PlanName: p.Name(), BillingCycle: cycle.String()},
	)

	return s, nil
}

// ReconstructParams carries persisted subscription state back into the
// aggregate.
type ReconstructParams struct {
	ID                 uint
	SID                string
	UUID               string
	CustomerID         uint
	PlanID             uint
	BillingCycle       vo.BillingCycle
	Status             vo.SubscriptionStatus
	StartDate          time.Time
	EndDate            time.Time
	Pricing            vo.PricingSnapshot
	OutstandingBalance decimal.Decimal
	ScheduledPlanID    *uint
	ScheduledEffective *time.Time
	Cancellation       *CancellationRecord
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func Reconstruct(p ReconstructParams) (*Subscription, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if p.CustomerID == 0 {
		return nil, fmt.Errorf("customer ID is required")
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}
	if !p.BillingCycle.IsValid() {
		return nil, fmt.Errorf("%w: %s", vo.ErrInvalidBillingCycle, p.BillingCycle)
	}

	return &Subscription{
		id:                 p.ID,
		sid:                p.SID,
		uuid:               p.UUID,
		customerID:         p.CustomerID,
		planID:             p.PlanID,
		billingCycle:       p.BillingCycle,
		status:             p.Status,
		startDate:          p.StartDate,
		endDate:            p.EndDate,
		pricing:            p.Pricing,
		outstandingBalance: p.OutstandingBalance,
		scheduledPlanID:    p.ScheduledPlanID,
		scheduledEffective: p.ScheduledEffective,
		cancellation:       p.Cancellation,
		version:            p.Version,
		createdAt:          p.CreatedAt,
		updatedAt:          p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() uint                            { return s.id }
func (s *Subscription) SID() string                         { return s.sid }
func (s *Subscription) UUID() string                        { return s.uuid }
func (s *Subscription) CustomerID() uint                    { return s.customerID }
func (s *Subscription) PlanID() uint                        { return s.planID }
func (s *Subscription) BillingCycle() vo.BillingCycle       { return s.billingCycle }
func (s *Subscription) Status() vo.SubscriptionStatus       { return s.status }
func (s *Subscription) StartDate() time.Time                { return s.startDate }
func (s *Subscription) EndDate() time.Time                  { return s.endDate }
func (s *Subscription) Pricing() vo.PricingSnapshot         { return s.pricing }
func (s *Subscription) OutstandingBalance() decimal.Decimal { return s.outstandingBalance }
func (s *Subscription) ScheduledPlanID() *uint              { return s.scheduledPlanID }
func (s *Subscription) ScheduledEffective() *time.Time      { return s.scheduledEffective }
func (s *Subscription) Cancellation() *CancellationRecord   { return s.cancellation }
func (s *Subscription) Version() int                        { return s.version }
func (s *Subscription) CreatedAt() time.Time                { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time                { return s.updatedAt }

// PendingHistory returns history entries appended since the last commit.
func (s *Subscription) PendingHistory() []*HistoryEntry { return s.pendingHistory }

// PendingPayments returns payment records appended since the last commit.
func (s *Subscription) PendingPayments() []*PaymentRecord { return s.pendingPayments }

// ClearPending resets the uncommitted history and payment buffers. Only the
// repository calls this, after a successful commit.
func (s *Subscription) ClearPending() {
	s.pendingHistory = nil
	s.pendingPayments = nil
}

// CommitVersion advances the optimistic-lock token after a successful
// repository commit, keeping the loaded aggregate usable for a follow-up
// write.
func (s *Subscription) CommitVersion() {
	s.version++
}

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(subID uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if subID == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = subID
	return nil
}

// IsExpired checks if the cycle boundary has passed.
func (s *Subscription) IsExpired() bool {
	return time.Now().UTC().After(s.endDate)
}

// IsActive checks if the subscription currently entitles service.
func (s *Subscription) IsActive() bool {
	return s.status.CanUseService() && !s.IsExpired()
}

// CurrentPeriodStart returns the start of the billing period that ends at the
// current cycle boundary. After a renewal this moves forward with the
// boundary, so usage periods opened against it never overlap an earlier
// cycle; startDate stays fixed at first activation.
func (s *Subscription) CurrentPeriodStart() time.Time {
	start := s.billingCycle.PreviousBillingDate(s.endDate)
	if start.Before(s.startDate) {
		return s.startDate
	}
	return start
}

// RemainingDays returns whole days left until the cycle boundary, floored at
// zero.
func (s *Subscription) RemainingDays(now time.Time) int {
	if now.After(s.endDate) {
		return 0
	}
	return int(s.endDate.Sub(now).Hours() / 24)
}

// touch stamps the mutation time. The optimistic-lock version stays at its
// loaded value; the repository bumps it when the write commits.
func (s *Subscription) touch() {
	s.updatedAt = time.Now().UTC()
}

func (s *Subscription) appendHistory(eventType HistoryEventType, description, actorLabel string, payload HistoryPayload) {
	entry := newHistoryEntry(eventType, description, actorLabel, payload, time.Now().UTC())
	entry.bindTo(s.id)
	s.pendingHistory = append(s.pendingHistory, entry)
}

func (s *Subscription) appendPayment(record *PaymentRecord) {
	record.BindTo(s.id)
	s.pendingPayments = append(s.pendingPayments, record)
}

// Activate moves a pending subscription into service and stamps the
// confirming payment into history.
func (s *Subscription) Activate(actorLabel string, payment *PaymentRecord) error {
	if s.status != vo.StatusPending {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	now := time.Now().UTC()
	if s.startDate.IsZero() {
		s.startDate = now
		s.endDate = s.billingCycle.NextBillingDate(now)
	}

	s.status = vo.StatusActive
	s.touch()

	amount := s.pricing.Total()
	ref := ""
	if payment != nil {
		amount = payment.Amount()
		ref = payment.TransactionRef()
		s.appendPayment(payment)
	}
	s.appendHistory(HistoryEventActivated,
		"payment completed, subscription activated",
		actorLabel,
		ActivationPayload{TransactionRef: ref, AmountPaid: amount},
	)

	return nil
}

// Upgrade switches to a strictly more expensive plan. The pricing snapshot
// is replaced with the full new cycle price; the unused remainder of the old
// cycle is not credited — the additional amount due is recorded as an
// outstanding balance instead.
func (s *Subscription) Upgrade(newPlan *plan.Plan, oldPlanName string,
	newPricing vo.PricingSnapshot, additionalDue decimal.Decimal, actorLabel string) error {

	if s.status != vo.StatusActive {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}
	if newPlan.PriceFor(s.billingCycle).LessThanOrEqual(s.pricing.BasePrice()) {
		return ErrInvalidUpgrade
	}

	oldPlanID := s.planID
	s.planID = newPlan.ID()
	s.pricing = newPricing
	if additionalDue.IsPositive() {
		s.outstandingBalance = s.outstandingBalance.Add(additionalDue)
	}
	s.touch()

	s.appendHistory(HistoryEventUpgraded,
		fmt.Sprintf("plan upgraded from %s to %s", oldPlanName, newPlan.Name()),
		actorLabel,
		UpgradePayload{
			OldPlanID:     oldPlanID,
			NewPlanID:     newPlan.ID(),
			OldPlanName:   oldPlanName,
			NewPlanName:   newPlan.Name(),
			AdditionalDue: additionalDue,
		},
	)

	return nil
}

// Downgrade switches to a strictly cheaper plan. With a future effective
// date the change is only scheduled; ApplyScheduledChange performs it at
// cycle rollover. An immediate downgrade replaces the pricing snapshot and
// records the refund-eligible credit.
func (s *Subscription) Downgrade(newPlan *plan.Plan, oldPlanName string,
	newPricing vo.PricingSnapshot, credit decimal.Decimal,
	effectiveDate *time.Time, actorLabel string) error {

	if s.status != vo.StatusActive {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}
	if newPlan.PriceFor(s.billingCycle).GreaterThanOrEqual(s.pricing.BasePrice()) {
		return ErrInvalidDowngrade
	}

	now := time.Now().UTC()
	if effectiveDate != nil && effectiveDate.After(now) {
		planID := newPlan.ID()
		effective := effectiveDate.UTC()
		s.scheduledPlanID = &planID
		s.scheduledEffective = &effective
		s.touch()

		s.appendHistory(HistoryEventDowngradeScheduled,
			fmt.Sprintf("downgrade to %s scheduled for %s", newPlan.Name(), effective.Format("2006-01-02")),
			actorLabel,
			DowngradeSchedulePayload{
				OldPlanID:     s.planID,
				NewPlanID:     planID,
				NewPlanName:   newPlan.Name(),
				Scheduled:     true,
				EffectiveDate: effective,
			},
		)
		return nil
	}

	s.applyPlanChangeDown(newPlan, oldPlanName, newPricing, credit, actorLabel)
	return nil
}

func (s *Subscription) applyPlanChangeDown(newPlan *plan.Plan, oldPlanName string,
	newPricing vo.PricingSnapshot, credit decimal.Decimal, actorLabel string) {

	oldPlanID := s.planID
	s.planID = newPlan.ID()
	s.pricing = newPricing
	s.scheduledPlanID = nil
	s.scheduledEffective = nil
	s.touch()

	s.appendHistory(HistoryEventDowngraded,
		fmt.Sprintf("plan downgraded from %s to %s", oldPlanName, newPlan.Name()),
		actorLabel,
		DowngradePayload{
			OldPlanID:   oldPlanID,
			NewPlanID:   newPlan.ID(),
			OldPlanName: oldPlanName,
			NewPlanName: newPlan.Name(),
			Credit:      credit,
		},
	)
}

// ApplyScheduledChange executes a previously scheduled downgrade. Invoked by
// the rollover job once the effective date has arrived.
func (s *Subscription) ApplyScheduledChange(newPlan *plan.Plan, oldPlanName string,
	newPricing vo.PricingSnapshot, actorLabel string) error {

	if s.scheduledPlanID == nil || s.scheduledEffective == nil {
		return ErrNoScheduledChange
	}
	if *s.scheduledPlanID != newPlan.ID() {
		return fmt.Errorf("scheduled plan mismatch: expected %d, got %d", *s.scheduledPlanID, newPlan.ID())
	}
	if s.status != vo.StatusActive {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	s.applyPlanChangeDown(newPlan, oldPlanName, newPricing, decimal.Zero, actorLabel)
	return nil
}

// ChangePlanDirect mutates plan and pricing without the upgrade/downgrade
// price-direction validation. Used only by admin-approved plan-change
// requests, where the reviewer has already authorized the change.
func (s *Subscription) ChangePlanDirect(newPlan *plan.Plan, oldPlanName string,
	newPricing vo.PricingSnapshot, actorLabel string) error {

	if s.status != vo.StatusActive {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	oldPlanID := s.planID
	newBase := newPlan.PriceFor(s.billingCycle)
	oldBase := s.pricing.BasePrice()

	s.planID = newPlan.ID()
	s.pricing = newPricing
	s.touch()

	if newBase.GreaterThan(oldBase) {
		diff := newBase.Sub(oldBase).Round(2)
		s.outstandingBalance = s.outstandingBalance.Add(diff)
		s.appendHistory(HistoryEventUpgraded,
			fmt.Sprintf("plan changed from %s to %s (admin approved)", oldPlanName, newPlan.Name()),
			actorLabel,
			UpgradePayload{
				OldPlanID:     oldPlanID,
				NewPlanID:     newPlan.ID(),
				OldPlanName:   oldPlanName,
				NewPlanName:   newPlan.Name(),
				AdditionalDue: diff,
			},
		)
		return nil
	}

	s.appendHistory(HistoryEventDowngraded,
		fmt.Sprintf("plan changed from %s to %s (admin approved)", oldPlanName, newPlan.Name()),
		actorLabel,
		DowngradePayload{
			OldPlanID:   oldPlanID,
			NewPlanID:   newPlan.ID(),
			OldPlanName: oldPlanName,
			NewPlanName: newPlan.Name(),
			Credit:      decimal.Zero,
		},
	)
	return nil
}

// Cancel terminates the subscription under the given record. Calling it on
// an already cancelled subscription fails with ErrAlreadyCancelled and
// leaves state unchanged.
func (s *Subscription) Cancel(record CancellationRecord, actorLabel string) error {
	if s.status == vo.StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !s.status.CanTransitionTo(vo.StatusCancelled) {
		return ErrInvalidTransition(s.status.String(), vo.StatusCancelled.String())
	}
	if record.Reason() == "" {
		return fmt.Errorf("cancel reason is required")
	}

	s.status = vo.StatusCancelled
	s.cancellation = &record
	s.touch()

	s.appendHistory(HistoryEventCancelled,
		fmt.Sprintf("subscription cancelled: %s", record.Reason()),
		actorLabel,
		CancellationPayload{
			Reason:         record.Reason(),
			EffectiveDate:  record.EffectiveAt(),
			RefundEligible: record.RefundEligible(),
			RefundAmount:   record.RefundAmount(),
		},
	)

	return nil
}

// Suspend pauses an active subscription.
func (s *Subscription) Suspend(reason, actorLabel string) error {
	if !s.status.CanTransitionTo(vo.StatusSuspended) {
		return ErrInvalidTransition(s.status.String(), vo.StatusSuspended.String())
	}
	if reason == "" {
		return fmt.Errorf("suspend reason is required")
	}

	s.status = vo.StatusSuspended
	s.touch()

	s.appendHistory(HistoryEventSuspended,
		fmt.Sprintf("subscription suspended: %s", reason),
		actorLabel,
		SuspensionPayload{Reason: reason},
	)

	return nil
}

// Resume returns a suspended subscription to service.
func (s *Subscription) Resume(actorLabel string) error {
	if s.status != vo.StatusSuspended {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	s.status = vo.StatusActive
	s.touch()

	s.appendHistory(HistoryEventResumed, "subscription resumed", actorLabel, ResumePayload{})

	return nil
}

// Renew extends the cycle boundary by exactly one billing-cycle unit and
// stamps the renewal payment. Expired subscriptions return to active.
func (s *Subscription) Renew(payment *PaymentRecord, actorLabel string) error {
	if s.status != vo.StatusActive && s.status != vo.StatusExpired {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	oldEnd := s.endDate
	s.endDate = s.billingCycle.NextBillingDate(oldEnd)
	if s.status == vo.StatusExpired {
		s.status = vo.StatusActive
	}
	s.touch()

	amount := s.pricing.Total()
	if payment != nil {
		amount = payment.Amount()
		s.appendPayment(payment)
	}
	s.appendHistory(HistoryEventRenewed,
		fmt.Sprintf("subscription renewed through %s", s.endDate.Format("2006-01-02")),
		actorLabel,
		RenewalPayload{OldEndDate: oldEnd, NewEndDate: s.endDate, Amount: amount},
	)

	return nil
}

// MarkExpired records that the cycle boundary passed without renewal.
func (s *Subscription) MarkExpired(actorLabel string) error {
	if s.status == vo.StatusExpired {
		return nil
	}
	if !s.status.CanTransitionTo(vo.StatusExpired) {
		return ErrInvalidTransition(s.status.String(), vo.StatusExpired.String())
	}

	now := time.Now().UTC()
	s.status = vo.StatusExpired
	s.touch()

	s.appendHistory(HistoryEventExpired, "subscription expired", actorLabel, ExpiryPayload{ExpiredAt: now})

	return nil
}

// SettleOutstandingBalance clears the upgrade balance once paid.
func (s *Subscription) SettleOutstandingBalance(payment *PaymentRecord) {
	if payment != nil {
		s.appendPayment(payment)
	}
	s.outstandingBalance = decimal.Zero
	s.touch()
}
