package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/domain/usage"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// CancelSubscriptionCommand terminates a subscription. Refund eligibility is
// decided here: a cancellation inside the refund window with usage under the
// cap refunds the full cycle total.
type CancelSubscriptionCommand struct {
	Actor          actor.Actor
	SubscriptionID uint
	Reason         string
}

// RefundPolicy carries the refund knobs from configuration.
type RefundPolicy struct {
	WindowDays      int
	UsageCapPercent float64
}

type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	usageRepo        usage.Repository
	publisher        events.Publisher
	policy           RefundPolicy
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	usageRepo usage.Repository,
	publisher events.Publisher,
	policy RefundPolicy,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		usageRepo:        usageRepo,
		publisher:        publisher,
		policy:           policy,
		logger:           logger,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (*SubscriptionDTO, error) {
	if cmd.Reason == "" {
		return nil, apperrors.NewValidationError("cancellation reason is required")
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	if !cmd.Actor.Owns(sub.CustomerID()) {
		return nil, apperrors.NewForbiddenError("cannot cancel another customer's subscription")
	}

	now := time.Now().UTC()
	eligible, refund, err := uc.refundDecision(ctx, sub, now)
	if err != nil {
		return nil, err
	}

	record := subscription.NewCancellationRecord(now, now, cmd.Reason, eligible, refund)
	if err := sub.Cancel(record, cmd.Actor.String()); err != nil {
		switch {
		case errors.Is(err, subscription.ErrAlreadyCancelled):
			return nil, apperrors.NewInvalidStateError("subscription is already cancelled").WithCause(err)
		case errors.Is(err, subscription.ErrInvalidStatusTransition):
			return nil, apperrors.NewInvalidStateError("subscription cannot be cancelled", err.Error()).WithCause(err)
		default:
			return nil, apperrors.NewValidationError("invalid cancellation", err.Error())
		}
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("subscription cancelled",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"refund_eligible", eligible,
		"refund_amount", refund.String(),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionCancelled, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"reason":           cmd.Reason,
		"refund_eligible":  eligible,
		"refund_amount":    refund.String(),
	}))

	return ToSubscriptionDTO(sub), nil
}

// refundDecision applies the refund window and usage cap. Both conditions
// must hold; an eligible cancellation refunds the full cycle total. Plans
// without a data cap count as zero usage.
func (uc *CancelSubscriptionUseCase) refundDecision(ctx context.Context, sub *subscription.Subscription, now time.Time) (bool, decimal.Decimal, error) {
	daysSinceStart := int(now.Sub(sub.StartDate()).Hours() / 24)
	if daysSinceStart < 0 || daysSinceStart > uc.policy.WindowDays {
		return false, decimal.Zero, nil
	}

	usagePercent := 0.0
	p, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return false, decimal.Zero, apperrors.NewInternalError("failed to load plan").WithCause(err)
	}
	if p != nil && !p.IsUnlimited() {
		period, err := uc.usageRepo.GetBySubscriptionAndTime(ctx, sub.ID(), now)
		if err != nil {
			return false, decimal.Zero, apperrors.NewInternalError("failed to load usage period").WithCause(err)
		}
		if period != nil {
			usagePercent = period.UsagePercent(p.DataLimitBytes())
		}
	}
	if usagePercent >= uc.policy.UsageCapPercent {
		return false, decimal.Zero, nil
	}

	return true, sub.Pricing().Total(), nil
}
