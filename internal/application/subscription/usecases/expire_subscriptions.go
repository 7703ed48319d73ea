package usecases

import (
	"context"
	"time"

	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/logger"
)

// ExpireSubscriptionsUseCase marks active subscriptions whose cycle boundary
// has passed without renewal. Invoked by the rollover scheduler.
type ExpireSubscriptionsUseCase struct {
	subscriptionRepo subscription.Repository
	publisher        events.Publisher
	batchSize        int
	logger           logger.Interface
}

func NewExpireSubscriptionsUseCase(
	subscriptionRepo subscription.Repository,
	publisher events.Publisher,
	batchSize int,
	logger logger.Interface,
) *ExpireSubscriptionsUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExpireSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		publisher:        publisher,
		batchSize:        batchSize,
		logger:           logger,
	}
}

// Execute processes one batch and returns how many subscriptions expired.
func (uc *ExpireSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	ended, err := uc.subscriptionRepo.FindPeriodEnded(ctx, now, uc.batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, sub := range ended {
		if err := sub.MarkExpired("system"); err != nil {
			uc.logger.Errorw("failed to expire subscription",
				"subscription_sid", sub.SID(),
				"error", err,
			)
			continue
		}
		if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
			uc.logger.Errorw("failed to persist expiry",
				"subscription_sid", sub.SID(),
				"error", err,
			)
			continue
		}
		expired++

		uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionModified, sub.CustomerID(), map[string]any{
			"subscription_sid": sub.SID(),
			"status":           sub.Status().String(),
		}))
	}

	if expired > 0 {
		uc.logger.Infow("subscriptions expired", "count", expired)
	}
	return expired, nil
}
