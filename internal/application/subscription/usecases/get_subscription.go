package usecases

import (
	"context"

	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
)

// SubscriptionDetailDTO bundles a subscription with its full audit trail and
// payment history.
type SubscriptionDetailDTO struct {
	Subscription *SubscriptionDTO  `json:"subscription"`
	History      []HistoryEntryDTO `json:"history"`
	Payments     []PaymentDTO      `json:"payments"`
}

// GetSubscriptionQuery fetches one subscription by ID. IncludeDetail also
// loads history and payments.
type GetSubscriptionQuery struct {
	Actor          actor.Actor
	SubscriptionID uint
	IncludeDetail  bool
}

// GetCurrentSubscriptionQuery fetches a customer's active or pending
// subscription.
type GetCurrentSubscriptionQuery struct {
	Actor      actor.Actor
	CustomerID uint
}

type GetSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
}

func NewGetSubscriptionUseCase(subscriptionRepo subscription.Repository) *GetSubscriptionUseCase {
	return &GetSubscriptionUseCase{subscriptionRepo: subscriptionRepo}
}

func (uc *GetSubscriptionUseCase) Execute(ctx context.Context, q GetSubscriptionQuery) (*SubscriptionDetailDTO, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, q.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	if !q.Actor.Owns(sub.CustomerID()) {
		return nil, apperrors.NewForbiddenError("cannot view another customer's subscription")
	}

	detail := &SubscriptionDetailDTO{Subscription: ToSubscriptionDTO(sub)}
	if !q.IncludeDetail {
		return detail, nil
	}

	history, err := uc.subscriptionRepo.ListHistory(ctx, sub.ID())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load history").WithCause(err)
	}
	for _, entry := range history {
		detail.History = append(detail.History, ToHistoryEntryDTO(entry))
	}

	payments, err := uc.subscriptionRepo.ListPayments(ctx, sub.ID())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payments").WithCause(err)
	}
	for _, record := range payments {
		detail.Payments = append(detail.Payments, ToPaymentDTO(record))
	}

	return detail, nil
}

func (uc *GetSubscriptionUseCase) ExecuteCurrent(ctx context.Context, q GetCurrentSubscriptionQuery) (*SubscriptionDTO, error) {
	if !q.Actor.Owns(q.CustomerID) {
		return nil, apperrors.NewForbiddenError("cannot view another customer's subscription")
	}

	sub, err := uc.subscriptionRepo.GetCurrentByCustomer(ctx, q.CustomerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("customer has no active or pending subscription")
	}

	return ToSubscriptionDTO(sub), nil
}
