package usecases

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/billing"
	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// UpgradePlanCommand moves an active subscription to a strictly more
// expensive plan. The full new cycle price is charged; the unused remainder
// of the old cycle is not credited. The difference between the new and old
// totals becomes an outstanding balance.
type UpgradePlanCommand struct {
	Actor          actor.Actor
	SubscriptionID uint
	NewPlanID      uint
	DiscountCode   string
}

type UpgradePlanUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	publisher        events.Publisher
	taxRatePercent   decimal.Decimal
	logger           logger.Interface
}

func NewUpgradePlanUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	publisher events.Publisher,
	taxRatePercent decimal.Decimal,
	logger logger.Interface,
) *UpgradePlanUseCase {
	return &UpgradePlanUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		publisher:        publisher,
		taxRatePercent:   taxRatePercent,
		logger:           logger,
	}
}

func (uc *UpgradePlanUseCase) Execute(ctx context.Context, cmd UpgradePlanCommand) (*SubscriptionDTO, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	if !cmd.Actor.Owns(sub.CustomerID()) {
		return nil, apperrors.NewForbiddenError("cannot modify another customer's subscription")
	}

	newPlan, err := uc.planRepo.GetByID(ctx, cmd.NewPlanID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load plan").WithCause(err)
	}
	if newPlan == nil {
		return nil, apperrors.NewNotFoundError("plan not found")
	}
	if !newPlan.IsActive() {
		return nil, apperrors.NewValidationError("plan is not available for subscription")
	}

	oldPlan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load current plan").WithCause(err)
	}
	oldPlanName := ""
	if oldPlan != nil {
		oldPlanName = oldPlan.Name()
	}

	quote := billing.QuoteCycle(newPlan, sub.BillingCycle(), cmd.DiscountCode, uc.taxRatePercent)
	snapshot, err := snapshotFromQuote(quote)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build pricing snapshot").WithCause(err)
	}
	additionalDue := billing.PriceDifference(sub.Pricing().Total(), quote.Total)

	if err := sub.Upgrade(newPlan, oldPlanName, snapshot, additionalDue, cmd.Actor.String()); err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidUpgrade):
			return nil, apperrors.NewValidationError("upgrade requires a more expensive plan").WithCause(err)
		case errors.Is(err, subscription.ErrInvalidStatusTransition):
			return nil, apperrors.NewInvalidStateError("subscription cannot be upgraded", err.Error()).WithCause(err)
		default:
			return nil, apperrors.NewInternalError("failed to upgrade subscription").WithCause(err)
		}
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("subscription upgraded",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"new_plan_id", newPlan.ID(),
		"additional_due", additionalDue.String(),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeBillingUpdated, sub.CustomerID(), map[string]any{
		"subscription_sid":    sub.SID(),
		"new_total":           quote.Total.String(),
		"outstanding_balance": sub.OutstandingBalance().String(),
	}))
	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionModified, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"plan_name":        newPlan.Name(),
		"change":           "upgrade",
	}))

	return ToSubscriptionDTO(sub), nil
}
