package usecases

import (
	"context"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/billing"
	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/planrequest"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// SubmitRequestCommand files a plan change request for admin review. A
// customer can hold at most one pending request.
type SubmitRequestCommand struct {
	Actor           actor.Actor
	CustomerID      uint
	RequestType     string
	RequestedPlanID uint
	Reason          string
	Urgency         string
	DiscountCode    string
}

type SubmitRequestUseCase struct {
	requestRepo      planrequest.Repository
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	publisher        events.Publisher
	taxRatePercent   decimal.Decimal
	logger           logger.Interface
}

func NewSubmitRequestUseCase(
	requestRepo planrequest.Repository,
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	publisher events.Publisher,
	taxRatePercent decimal.Decimal,
	logger logger.Interface,
) *SubmitRequestUseCase {
	return &SubmitRequestUseCase{
		requestRepo:      requestRepo,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		publisher:        publisher,
		taxRatePercent:   taxRatePercent,
		logger:           logger,
	}
}

func (uc *SubmitRequestUseCase) Execute(ctx context.Context, cmd SubmitRequestCommand) (*RequestDTO, error) {
	if !cmd.Actor.Owns(cmd.CustomerID) {
		return nil, apperrors.NewForbiddenError("cannot submit a request for another customer")
	}

	requestType := planrequest.RequestType(cmd.RequestType)
	if !planrequest.ValidRequestTypes[requestType] {
		return nil, apperrors.NewValidationError("invalid request type", cmd.RequestType)
	}
	urgency := planrequest.Urgency(cmd.Urgency)
	if cmd.Urgency == "" {
		urgency = planrequest.UrgencyMedium
	}
	if !planrequest.ValidUrgencies[urgency] {
		return nil, apperrors.NewValidationError("invalid urgency", cmd.Urgency)
	}

	pending, err := uc.requestRepo.GetPendingByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check pending requests").WithCause(err)
	}
	if pending != nil {
		return nil, apperrors.NewConflictError("customer already has a pending request").
			WithCause(planrequest.ErrDuplicatePendingRequest)
	}

	sub, err := uc.subscriptionRepo.GetCurrentByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if requestType != planrequest.TypeNewSubscription && sub == nil {
		return nil, apperrors.NewValidationError("customer has no subscription to change")
	}
	if requestType == planrequest.TypeNewSubscription && sub != nil {
		return nil, apperrors.NewConflictError("customer already has an active or pending subscription").
			WithCause(subscription.ErrDuplicateActiveSubscription)
	}

	quote, currentPlanID, err := uc.buildQuote(ctx, requestType, cmd.RequestedPlanID, cmd.DiscountCode, sub)
	if err != nil {
		return nil, err
	}

	params := planrequest.NewRequestParams{
		CustomerID:  cmd.CustomerID,
		RequestType: requestType,
		Reason:      cmd.Reason,
		Urgency:     urgency,
		Quote:       quote,
	}
	if sub != nil {
		subID := sub.ID()
		params.SubscriptionID = &subID
		params.CurrentPlanID = currentPlanID
	}
	if requestType.RequiresTargetPlan() {
		planID := cmd.RequestedPlanID
		params.RequestedPlanID = &planID
	}

	req, err := planrequest.NewRequest(params)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid request", err.Error())
	}

	if err := uc.requestRepo.Create(ctx, req); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to create request").WithCause(err)
	}

	uc.logger.Infow("plan change request submitted",
		"request_sid", req.SID(),
		"customer_id", req.CustomerID(),
		"request_type", requestType.String(),
		"priority", req.Priority(),
		"auto_approval_eligible", req.AutoApprovalEligible(),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypePlanRequestCreated, req.CustomerID(), map[string]any{
		"request_sid":  req.SID(),
		"request_type": requestType.String(),
		"priority":     req.Priority(),
	}))

	return ToRequestDTO(req, cmd.Actor.IsAdmin()), nil
}

// buildQuote freezes the price comparison at submission time. Cancellation
// requests quote the drop to zero; new subscriptions quote from zero.
func (uc *SubmitRequestUseCase) buildQuote(ctx context.Context, requestType planrequest.RequestType,
	requestedPlanID uint, discountCode string, sub *subscription.Subscription) (planrequest.PricingQuote, *uint, error) {

	currentTotal := decimal.Zero
	currency := ""
	var currentPlanID *uint
	if sub != nil {
		currentTotal = sub.Pricing().Total()
		currency = sub.Pricing().Currency()
		planID := sub.PlanID()
		currentPlanID = &planID
	}

	if !requestType.RequiresTargetPlan() {
		return planrequest.NewPricingQuote(currentTotal, decimal.Zero, currency), currentPlanID, nil
	}

	if requestedPlanID == 0 {
		return planrequest.PricingQuote{}, nil, apperrors.NewValidationError("requested plan is required")
	}
	p, err := uc.planRepo.GetByID(ctx, requestedPlanID)
	if err != nil {
		return planrequest.PricingQuote{}, nil, apperrors.NewInternalError("failed to load plan").WithCause(err)
	}
	if p == nil {
		return planrequest.PricingQuote{}, nil, apperrors.NewNotFoundError("requested plan not found")
	}
	if !p.IsActive() {
		return planrequest.PricingQuote{}, nil, apperrors.NewValidationError("requested plan is not available")
	}

	cycle := billingCycleFor(sub)
	quote := billing.QuoteCycle(p, cycle, discountCode, uc.taxRatePercent)
	if currency == "" {
		currency = quote.Currency
	}

	return planrequest.NewPricingQuote(currentTotal, quote.Total, currency), currentPlanID, nil
}
