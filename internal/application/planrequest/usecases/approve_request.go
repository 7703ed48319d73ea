package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	subusecases "bandwave/internal/application/subscription/usecases"
	"bandwave/internal/domain/billing"
	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/planrequest"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/domain/usage"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// ApproveRequestCommand records the reviewer decision and executes the change
// against the subscription. When execution fails the approval is compensated:
// the request returns to pending with the failure in its audit trail, and the
// caller receives an execution-compensated error.
type ApproveRequestCommand struct {
	Actor         actor.Actor
	RequestID     uint
	Comments      string
	InternalNotes string
}

type ApproveRequestUseCase struct {
	requestRepo      planrequest.Repository
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	usageRepo        usage.Repository
	publisher        events.Publisher
	taxRatePercent   decimal.Decimal
	refundPolicy     subusecases.RefundPolicy
	logger           logger.Interface
}

func NewApproveRequestUseCase(
	requestRepo planrequest.Repository,
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	usageRepo usage.Repository,
	publisher events.Publisher,
	taxRatePercent decimal.Decimal,
	refundPolicy subusecases.RefundPolicy,
	logger logger.Interface,
) *ApproveRequestUseCase {
	return &ApproveRequestUseCase{
		requestRepo:      requestRepo,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		usageRepo:        usageRepo,
		publisher:        publisher,
		taxRatePercent:   taxRatePercent,
		refundPolicy:     refundPolicy,
		logger:           logger,
	}
}

func (uc *ApproveRequestUseCase) Execute(ctx context.Context, cmd ApproveRequestCommand) (*RequestDTO, error) {
	if !cmd.Actor.IsAdmin() && !cmd.Actor.IsSystem() {
		return nil, apperrors.NewForbiddenError("only admins can approve requests")
	}

	req, err := uc.requestRepo.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load request").WithCause(err)
	}
	if req == nil {
		return nil, apperrors.NewNotFoundError("request not found")
	}

	if cmd.Actor.IsSystem() {
		err = req.AutoApprove()
	} else {
		err = req.Approve(cmd.Actor.ID, cmd.Comments, cmd.InternalNotes)
	}
	if err != nil {
		return nil, apperrors.NewInvalidStateError("request cannot be approved", err.Error()).WithCause(err)
	}

	if err := uc.requestRepo.Update(ctx, req); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist approval").WithCause(err)
	}

	if execErr := uc.execute(ctx, req); execErr != nil {
		return nil, uc.compensate(ctx, req, execErr)
	}

	uc.logger.Infow("plan change request approved",
		"request_sid", req.SID(),
		"customer_id", req.CustomerID(),
		"request_type", req.RequestType().String(),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypePlanRequestApproved, req.CustomerID(), map[string]any{
		"request_sid":  req.SID(),
		"request_type": req.RequestType().String(),
	}))

	return ToRequestDTO(req, true), nil
}

// compensate rolls an approved request back to pending after its execution
// failed, so the approval and the subscription never disagree.
func (uc *ApproveRequestUseCase) compensate(ctx context.Context, req *planrequest.Request, execErr error) error {
	uc.logger.Errorw("request execution failed, compensating approval",
		"request_sid", req.SID(),
		"error", execErr,
	)

	if err := req.RevertToPending(execErr.Error()); err != nil {
		return apperrors.NewInternalError("execution failed and compensation could not revert the request").WithCause(err)
	}
	if err := uc.requestRepo.Update(ctx, req); err != nil {
		return apperrors.NewInternalError("execution failed and compensation could not be persisted").WithCause(err)
	}

	return apperrors.NewExecutionCompensationError(
		"request execution failed, approval rolled back", execErr.Error()).WithCause(execErr)
}

func (uc *ApproveRequestUseCase) execute(ctx context.Context, req *planrequest.Request) error {
	switch req.RequestType() {
	case planrequest.TypeNewSubscription:
		return uc.executeNewSubscription(ctx, req)
	case planrequest.TypeCancelSubscription:
		return uc.executeCancel(ctx, req)
	default:
		return uc.executePlanChange(ctx, req)
	}
}

func (uc *ApproveRequestUseCase) executeNewSubscription(ctx context.Context, req *planrequest.Request) error {
	existing, err := uc.subscriptionRepo.GetCurrentByCustomer(ctx, req.CustomerID())
	if err != nil {
		return err
	}
	if existing != nil {
		return subscription.ErrDuplicateActiveSubscription
	}

	p, err := uc.loadPlan(ctx, req.RequestedPlanID())
	if err != nil {
		return err
	}

	quote := billing.QuoteCycle(p, billingCycleFor(nil), "", uc.taxRatePercent)
	snapshot, err := snapshotFromQuote(quote)
	if err != nil {
		return err
	}

	sub, err := subscription.NewSubscription(req.CustomerID(), p, billingCycleFor(nil), time.Now().UTC(), snapshot)
	if err != nil {
		return err
	}
	// Admin approval stands in for the payment callback, so the subscription
	// activates in the same commit instead of waiting as pending forever.
	if err := sub.Activate("admin", nil); err != nil {
		return err
	}
	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		return err
	}

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionCreated, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"plan_name":        p.Name(),
	}))

	return nil
}

func (uc *ApproveRequestUseCase) executePlanChange(ctx context.Context, req *planrequest.Request) error {
	sub, err := uc.loadSubscription(ctx, req)
	if err != nil {
		return err
	}
	newPlan, err := uc.loadPlan(ctx, req.RequestedPlanID())
	if err != nil {
		return err
	}
	oldPlanName := uc.planName(ctx, sub.PlanID())

	quote := billing.QuoteCycle(newPlan, sub.BillingCycle(), sub.Pricing().DiscountCode(), uc.taxRatePercent)
	snapshot, err := snapshotFromQuote(quote)
	if err != nil {
		return err
	}

	actorLabel := "admin"
	switch req.RequestType() {
	case planrequest.TypePlanUpgrade:
		additionalDue := billing.PriceDifference(sub.Pricing().Total(), quote.Total)
		err = sub.Upgrade(newPlan, oldPlanName, snapshot, additionalDue, actorLabel)
	case planrequest.TypePlanDowngrade:
		var credit decimal.Decimal
		diff := sub.Pricing().Total().Sub(quote.Total)
		if diff.IsPositive() {
			credit, err = billing.ProratedCredit(diff, sub.BillingCycle().Days(), sub.RemainingDays(time.Now().UTC()))
			if err != nil {
				return err
			}
		}
		err = sub.Downgrade(newPlan, oldPlanName, snapshot, credit, nil, actorLabel)
	default:
		err = sub.ChangePlanDirect(newPlan, oldPlanName, snapshot, actorLabel)
	}
	if err != nil {
		return err
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		return err
	}

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionModified, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"plan_name":        newPlan.Name(),
		"change":           req.RequestType().String(),
	}))

	return nil
}

func (uc *ApproveRequestUseCase) executeCancel(ctx context.Context, req *planrequest.Request) error {
	sub, err := uc.loadSubscription(ctx, req)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	eligible, refund, err := uc.refundDecision(ctx, sub, now)
	if err != nil {
		return err
	}
	reason := req.Reason()
	if reason == "" {
		reason = "cancellation approved"
	}

	record := subscription.NewCancellationRecord(req.CreatedAt(), now, reason, eligible, refund)
	if err := sub.Cancel(record, "admin"); err != nil {
		return err
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		return err
	}

	uc.publisher.Publish(ctx, events.NewEvent(events.TypeSubscriptionCancelled, sub.CustomerID(), map[string]any{
		"subscription_sid": sub.SID(),
		"reason":           reason,
		"refund_eligible":  eligible,
	}))

	return nil
}

// refundDecision applies the refund window and usage cap the same way the
// direct cancellation path does. A failed plan or usage lookup propagates:
// it must not silently count as zero usage and grant a refund.
func (uc *ApproveRequestUseCase) refundDecision(ctx context.Context, sub *subscription.Subscription, now time.Time) (bool, decimal.Decimal, error) {
	daysSinceStart := int(now.Sub(sub.StartDate()).Hours() / 24)
	if daysSinceStart < 0 || daysSinceStart > uc.refundPolicy.WindowDays {
		return false, decimal.Zero, nil
	}

	usagePercent := 0.0
	p, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return false, decimal.Zero, apperrors.NewInternalError("failed to load plan").WithCause(err)
	}
	if p != nil && !p.IsUnlimited() {
		period, err := uc.usageRepo.GetBySubscriptionAndTime(ctx, sub.ID(), now)
		if err != nil {
			return false, decimal.Zero, apperrors.NewInternalError("failed to load usage period").WithCause(err)
		}
		if period != nil {
			usagePercent = period.UsagePercent(p.DataLimitBytes())
		}
	}
	if usagePercent >= uc.refundPolicy.UsageCapPercent {
		return false, decimal.Zero, nil
	}

	return true, sub.Pricing().Total(), nil
}

func (uc *ApproveRequestUseCase) loadSubscription(ctx context.Context, req *planrequest.Request) (*subscription.Subscription, error) {
	if req.SubscriptionID() == nil {
		return nil, fmt.Errorf("request has no subscription")
	}
	sub, err := uc.subscriptionRepo.GetByID(ctx, *req.SubscriptionID())
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (uc *ApproveRequestUseCase) loadPlan(ctx context.Context, planID *uint) (*plan.Plan, error) {
	if planID == nil {
		return nil, fmt.Errorf("request has no target plan")
	}
	p, err := uc.planRepo.GetByID(ctx, *planID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, plan.ErrPlanNotFound
	}
	if !p.IsActive() {
		return nil, plan.ErrPlanInactive
	}
	return p, nil
}

func (uc *ApproveRequestUseCase) planName(ctx context.Context, planID uint) string {
	p, err := uc.planRepo.GetByID(ctx, planID)
	if err != nil || p == nil {
		return ""
	}
	return p.Name()
}
