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

// RenewSubscriptionCommand extends the cycle by one billing unit after a
// renewal payment. Expired subscriptions return to active.
type RenewSubscriptionCommand struct {
	Actor          actor.Actor
	SubscriptionID uint
	Amount         decimal.Decimal
	Method         string
	TransactionRef string
	PaidAt         time.Time
}

type RenewSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	publisher        events.Publisher
	logger           logger.Interface
}

func NewRenewSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	publisher events.Publisher,
	logger logger.Interface,
) *RenewSubscriptionUseCase {
	return &RenewSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

func (uc *RenewSubscriptionUseCase) Execute(ctx context.Context, cmd RenewSubscriptionCommand) (*SubscriptionDTO, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	if !cmd.Actor.Owns(sub.CustomerID()) {
		return nil, apperrors.NewForbiddenError("cannot renew another customer's subscription")
	}

	paidAt := cmd.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	payment, err := subscription.NewPaymentRecord(cmd.Amount, cmd.Method, cmd.TransactionRef, paidAt)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid payment", err.Error())
	}

	if err := sub.Renew(payment, cmd.Actor.String()); err != nil {
		if errors.Is(err, subscription.ErrInvalidStatusTransition) {
			return nil, apperrors.NewInvalidStateError("subscription cannot be renewed", err.Error()).WithCause(err)
		}
		return nil, apperrors.NewInternalError("failed to renew subscription").WithCause(err)
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist subscription").WithCause(err)
	}

	uc.logger.Infow("subscription renewed",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"new_end_date", sub.EndDate().Format(time.RFC3339),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypePaymentProcessed, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"amount":           cmd.Amount.String(),
		"transaction_ref":  cmd.TransactionRef,
	}))
	uc.publisher.Publish(ctx, events.NewEvent(events.TypeBillingUpdated, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"new_end_date":     sub.EndDate().Format(time.RFC3339),
	}))

	return ToSubscriptionDTO(sub), nil
}
