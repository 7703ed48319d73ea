package usecases

import (
	"context"
	"time"

	"bandwave/internal/domain/billing"
	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"

	"github.com/shopspring/decimal"
)

// CreateSubscriptionCommand opens a pending subscription for a customer.
type CreateSubscriptionCommand struct {
	Actor        actor.Actor
	CustomerID   uint
	PlanID       uint
	BillingCycle string
	DiscountCode string
	StartDate    *time.Time
}

type CreateSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	publisher        events.Publisher
	taxRatePercent   decimal.Decimal
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	publisher events.Publisher,
	taxRatePercent decimal.Decimal,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		publisher:        publisher,
		taxRatePercent:   taxRatePercent,
		logger:           logger,
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*SubscriptionDTO, error) {
	if !cmd.Actor.Owns(cmd.CustomerID) {
		return nil, apperrors.NewForbiddenError("cannot create a subscription for another customer")
	}

	cycle, err := vo.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid billing cycle", err.Error())
	}

	p, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load plan").WithCause(err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("plan not found")
	}
	if !p.IsActive() {
		return nil, apperrors.NewValidationError("plan is not available for subscription")
	}

	existing, err := uc.subscriptionRepo.GetCurrentByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check existing subscription").WithCause(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("customer already has an active or pending subscription").
			WithCause(subscription.ErrDuplicateActiveSubscription)
	}

	quote := billing.QuoteCycle(p, cycle, cmd.DiscountCode, uc.taxRatePercent)
	snapshot, err := snapshotFromQuote(quote)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build pricing snapshot").WithCause(err)
	}

	start := time.Now().UTC()
	if cmd.StartDate != nil {
		start = cmd.StartDate.UTC()
	}

	sub, err := subscription.NewSubscription(cmd.CustomerID, p, cycle, start, snapshot)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid subscription", err.Error())
	}

	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to create subscription").WithCause(err)
	}

	uc.logger.Infow("subscription created",
		"subscription_sid", sub.SID(),
		"customer_id", sub.CustomerID(),
		"plan_id", p.ID(),
		"billing_cycle", cycle.String(),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionCreated, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"plan_name":        p.Name(),
		"billing_cycle":    cycle.String(),
		"total":            quote.Total.String(),
	}))

	return ToSubscriptionDTO(sub), nil
}
