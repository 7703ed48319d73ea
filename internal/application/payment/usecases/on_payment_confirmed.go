package usecases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	subusecases "bandwave/internal/application/subscription/usecases"
	"bandwave/internal/domain/billing"
	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// OnPaymentConfirmedCommand is the gateway callback after a successful
// charge. If the customer already holds a pending subscription it is
// activated; otherwise a subscription on the named plan is created and
// activated in one step.
type OnPaymentConfirmedCommand struct {
	CustomerID     uint
	PlanID         uint
	BillingCycle   string
	DiscountCode   string
	Amount         decimal.Decimal
	Method         string
	TransactionRef string
	PaidAt         time.Time
}

type OnPaymentConfirmedUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	publisher        events.Publisher
	taxRatePercent   decimal.Decimal
	logger           logger.Interface
}

func NewOnPaymentConfirmedUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	publisher events.Publisher,
	taxRatePercent decimal.Decimal,
	logger logger.Interface,
) *OnPaymentConfirmedUseCase {
	return &OnPaymentConfirmedUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		publisher:        publisher,
		taxRatePercent:   taxRatePercent,
		logger:           logger,
	}
}

func (uc *OnPaymentConfirmedUseCase) Execute(ctx context.Context, cmd OnPaymentConfirmedCommand) (*subusecases.SubscriptionDTO, error) {
	if cmd.CustomerID == 0 {
		return nil, apperrors.NewValidationError("customer ID is required")
	}
	if cmd.TransactionRef == "" {
		return nil, apperrors.NewValidationError("transaction reference is required")
	}

	paidAt := cmd.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	existing, err := uc.subscriptionRepo.GetCurrentByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check existing subscription").WithCause(err)
	}

	system := actor.Actor{Role: actor.RoleSystem}

	if existing != nil {
		if existing.Status() != vo.StatusPending {
			// Already active; treat the charge as a renewal payment.
			return uc.renew(ctx, existing, cmd, paidAt)
		}
		return uc.activate(ctx, existing, cmd, paidAt, system)
	}

	// No subscription yet: create one from the payment and activate it.
	if cmd.PlanID == 0 {
		return nil, apperrors.NewValidationError("plan ID is required for a first payment")
	}
	p, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load plan").WithCause(err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("plan not found")
	}
	if !p.IsActive() {
		return nil, apperrors.NewValidationError("plan is not available for subscription")
	}

	cycle, err := vo.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid billing cycle", err.Error())
	}

	quote := billing.QuoteCycle(p, cycle, cmd.DiscountCode, uc.taxRatePercent)
	snapshot, err := vo.NewPricingSnapshot(quote.BasePrice, quote.Discount, quote.TaxAmount, quote.Total, quote.Currency, quote.DiscountCode)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build pricing snapshot").WithCause(err)
	}

	sub, err := subscription.NewSubscription(cmd.CustomerID, p, cycle, paidAt, snapshot)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid subscription", err.Error())
	}
	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to create subscription").WithCause(err)
	}

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionCreated, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"plan_name":        p.Name(),
	}))

	return uc.activate(ctx, sub, cmd, paidAt, system)
}

func (uc *OnPaymentConfirmedUseCase) activate(ctx context.Context, sub *subscription.Subscription,
	cmd OnPaymentConfirmedCommand, paidAt time.Time, system actor.Actor) (*subusecases.SubscriptionDTO, error) {

	payment, err := subscription.NewPaymentRecord(cmd.Amount, cmd.Method, cmd.TransactionRef, paidAt)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid payment", err.Error())
	}

	if err := sub.Activate(system.String(), payment); err != nil {
		return nil, apperrors.NewInvalidStateError("subscription cannot be activated", err.Error()).WithCause(err)
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("payment confirmed, subscription activated",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"transaction_ref", cmd.TransactionRef,
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypePaymentProcessed, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"amount":           cmd.Amount.String(),
		"transaction_ref":  cmd.TransactionRef,
	}))

	return subusecases.ToSubscriptionDTO(sub), nil
}

func (uc *OnPaymentConfirmedUseCase) renew(ctx context.Context, sub *subscription.Subscription,
	cmd OnPaymentConfirmedCommand, paidAt time.Time) (*subusecases.SubscriptionDTO, error) {

	payment, err := subscription.NewPaymentRecord(cmd.Amount, cmd.Method, cmd.TransactionRef, paidAt)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid payment", err.Error())
	}

	if err := sub.Renew(payment, "system"); err != nil {
		return nil, apperrors.NewInvalidStateError("subscription cannot be renewed", err.Error()).WithCause(err)
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("payment confirmed, subscription renewed",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"transaction_ref", cmd.TransactionRef,
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypePaymentProcessed, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"amount":           cmd.Amount.String(),
		"transaction_ref":  cmd.TransactionRef,
	}))

	return subusecases.ToSubscriptionDTO(sub), nil
}
