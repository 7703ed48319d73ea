package usecases

import (
	"context"
	"errors"

	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// SuspendSubscriptionCommand pauses service on an active subscription.
// Admin-only: customers request cancellation, they do not suspend.
type SuspendSubscriptionCommand struct {
	Actor          actor.Actor
	SubscriptionID uint
	Reason         string
}

type SuspendSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	publisher        events.Publisher
	logger           logger.Interface
}

func NewSuspendSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	publisher events.Publisher,
	logger logger.Interface,
) *SuspendSubscriptionUseCase {
	return &SuspendSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

func (uc *SuspendSubscriptionUseCase) Execute(ctx context.Context, cmd SuspendSubscriptionCommand) (*SubscriptionDTO, error) {
	if !cmd.Actor.IsAdmin() && !cmd.Actor.IsSystem() {
		return nil, apperrors.NewForbiddenError("only admins can suspend subscriptions")
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}

	if err := sub.Suspend(cmd.Reason, cmd.Actor.String()); err != nil {
		if errors.Is(err, subscription.ErrInvalidStatusTransition) {
			return nil, apperrors.NewInvalidStateError("subscription cannot be suspended", err.Error()).WithCause(err)
		}
		return nil, apperrors.NewValidationError("invalid suspension", err.Error())
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("subscription suspended",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"reason", cmd.Reason,
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionModified, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"status":           sub.Status().String(),
		"reason":           cmd.Reason,
	}))

	return ToSubscriptionDTO(sub), nil
}
