package usecases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/billing"
	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/logger"
)

// ApplyScheduledChangesUseCase executes downgrades whose effective date has
// arrived. Invoked by the rollover scheduler; failures on one subscription
// never block the rest of the batch.
type ApplyScheduledChangesUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	publisher        events.Publisher
	taxRatePercent   decimal.Decimal
	batchSize        int
	logger           logger.Interface
}

func NewApplyScheduledChangesUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	publisher events.Publisher,
	taxRatePercent decimal.Decimal,
	batchSize int,
	logger logger.Interface,
) *ApplyScheduledChangesUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ApplyScheduledChangesUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		publisher:        publisher,
		taxRatePercent:   taxRatePercent,
		batchSize:        batchSize,
		logger:           logger,
	}
}

// Execute processes one batch and returns how many changes were applied.
func (uc *ApplyScheduledChangesUseCase) Execute(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	due, err := uc.subscriptionRepo.FindScheduledChangesDue(ctx, now, uc.batchSize)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, sub := range due {
		if err := uc.applyOne(ctx, sub); err != nil {
			uc.logger.Errorw("failed to apply scheduled plan change",
				"subscription_sid", sub.SID(),
				"error", err,
			)
			continue
		}
		applied++
	}

	if applied > 0 {
		uc.logger.Infow("scheduled plan changes applied", "count", applied)
	}
	return applied, nil
}

func (uc *ApplyScheduledChangesUseCase) applyOne(ctx context.Context, sub *subscription.Subscription) error {
	planID := sub.ScheduledPlanID()
	if planID == nil {
		return subscription.ErrNoScheduledChange
	}

	newPlan, err := uc.planRepo.GetByID(ctx, *planID)
	if err != nil {
		return err
	}
	if newPlan == nil {
		return plan.ErrPlanNotFound
	}

	oldPlan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return err
	}
	oldPlanName := ""
	if oldPlan != nil {
		oldPlanName = oldPlan.Name()
	}

	// The snapshot keeps the discount code frozen at the original purchase.
	quote := billing.QuoteCycle(newPlan, sub.BillingCycle(), sub.Pricing().DiscountCode(), uc.taxRatePercent)
	snapshot, err := snapshotFromQuote(quote)
	if err != nil {
		return err
	}

	if err := sub.ApplyScheduledChange(newPlan, oldPlanName, snapshot, "system"); err != nil {
		return err
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		return err
	}

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionModified, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"plan_name":        newPlan.Name(),
		"change":           "scheduled_downgrade_applied",
	}))

	return nil
}
