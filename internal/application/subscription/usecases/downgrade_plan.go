package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/billing"
	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// DowngradePlanCommand moves an active subscription to a strictly cheaper
// plan. With a future EffectiveDate the change is scheduled and applied at
// that date; an immediate downgrade credits the prorated price difference
// over the remaining days of the cycle.
type DowngradePlanCommand struct {
	Actor          actor.Actor
	SubscriptionID uint
	NewPlanID      uint
	DiscountCode   string
	EffectiveDate  *time.Time
}

type DowngradePlanUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	publisher        events.Publisher
	taxRatePercent   decimal.Decimal
	logger           logger.Interface
}

func NewDowngradePlanUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	publisher events.Publisher,
	taxRatePercent decimal.Decimal,
	logger logger.Interface,
) *DowngradePlanUseCase {
	return &DowngradePlanUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		publisher:        publisher,
		taxRatePercent:   taxRatePercent,
		logger:           logger,
	}
}

func (uc *DowngradePlanUseCase) Execute(ctx context.Context, cmd DowngradePlanCommand) (*SubscriptionDTO, error) {
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

	// Immediate downgrades credit the price difference prorated over the
	// days left in the current cycle.
	credit := decimal.Zero
	if cmd.EffectiveDate == nil || !cmd.EffectiveDate.After(time.Now().UTC()) {
		diff := sub.Pricing().Total().Sub(quote.Total)
		if diff.IsPositive() {
			credit, err = billing.ProratedCredit(diff, sub.BillingCycle().Days(), sub.RemainingDays(time.Now().UTC()))
			if err != nil {
				return nil, apperrors.NewInternalError("failed to compute downgrade credit").WithCause(err)
			}
		}
	}

	if err := sub.Downgrade(newPlan, oldPlanName, snapshot, credit, cmd.EffectiveDate, cmd.Actor.String()); err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidDowngrade):
			return nil, apperrors.NewValidationError("downgrade requires a cheaper plan").WithCause(err)
		case errors.Is(err, subscription.ErrInvalidStatusTransition):
			return nil, apperrors.NewInvalidStateError("subscription cannot be downgraded", err.Error()).WithCause(err)
		default:
			return nil, apperrors.NewInternalError("failed to downgrade subscription").WithCause(err)
		}
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("subscription downgraded",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"new_plan_id", newPlan.ID(),
		"scheduled", sub.ScheduledPlanID() != nil,
		"credit", credit.String(),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionModified, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"plan_name":        newPlan.Name(),
		"change":           "downgrade",
		"scheduled":        sub.ScheduledPlanID() != nil,
	}))

	return ToSubscriptionDTO(sub), nil
}
