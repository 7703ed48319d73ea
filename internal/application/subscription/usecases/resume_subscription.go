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

// ResumeSubscriptionCommand returns a suspended subscription to service.
type ResumeSubscriptionCommand struct {
	Actor          actor.Actor
	SubscriptionID uint
}

type ResumeSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	publisher        events.Publisher
	logger           logger.Interface
}

func NewResumeSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	publisher events.Publisher,
	logger logger.Interface,
) *ResumeSubscriptionUseCase {
	return &ResumeSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

func (uc *ResumeSubscriptionUseCase) Execute(ctx context.Context, cmd ResumeSubscriptionCommand) (*SubscriptionDTO, error) {
	if !cmd.Actor.IsAdmin() && !cmd.Actor.IsSystem() {
		return nil, apperrors.NewForbiddenError("only admins can resume subscriptions")
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}

	if err := sub.Resume(cmd.Actor.String()); err != nil {
		if errors.Is(err, subscription.ErrInvalidStatusTransition) {
			return nil, apperrors.NewInvalidStateError("subscription cannot be resumed", err.Error()).WithCause(err)
		}
		return nil, apperrors.NewInternalError("failed to resume subscription").WithCause(err)
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("subscription resumed",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionModified, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"status":           sub.Status().String(),
	}))

	return ToSubscriptionDTO(sub), nil
}
