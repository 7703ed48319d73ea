package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// ActivateSubscriptionCommand turns a pending subscription on after payment.
type ActivateSubscriptionCommand struct {
	Actor          actor.Actor
	SubscriptionID uint
	Amount         decimal.Decimal
	Method         string
	TransactionRef string
	PaidAt         time.Time
}

type ActivateSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	publisher        events.Publisher
	logger           logger.Interface
}

func NewActivateSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	publisher events.Publisher,
	logger logger.Interface,
) *ActivateSubscriptionUseCase {
	return &ActivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

func (uc *ActivateSubscriptionUseCase) Execute(ctx context.Context, cmd ActivateSubscriptionCommand) (*SubscriptionDTO, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	if !cmd.Actor.Owns(sub.CustomerID()) {
		return nil, apperrors.NewForbiddenError("cannot activate another customer's subscription")
	}

	paidAt := cmd.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	payment, err := subscription.NewPaymentRecord(cmd.Amount, cmd.Method, cmd.TransactionRef, paidAt)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid payment", err.Error())
	}

	if err := sub.Activate(cmd.Actor.String(), payment); err != nil {
		if errors.Is(err, subscription.ErrInvalidStatusTransition) {
			return nil, apperrors.NewInvalidStateError("subscription cannot be activated", err.Error()).WithCause(err)
		}
		return nil, apperrors.NewInternalError("failed to activate subscription").WithCause(err)
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("subscription activated",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"transaction_ref", cmd.TransactionRef,
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypePaymentProcessed, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"amount":           cmd.Amount.String(),
		"transaction_ref":  cmd.TransactionRef,
	}))
	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionModified, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"status":           sub.Status().String(),
	}))

	return ToSubscriptionDTO(sub), nil
}
