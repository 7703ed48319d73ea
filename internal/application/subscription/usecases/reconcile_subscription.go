package usecases

import (
	"context"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/subscription"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
)

// ReconciliationDTO compares the money a subscription should have collected
// against its recorded payments. Expected charges are derived by replaying
// the history: the activation charge plus each renewal and upgrade balance,
// minus any refunded payments.
type ReconciliationDTO struct {
	SubscriptionSID    string          `json:"subscription_sid"`
	ExpectedCharges    decimal.Decimal `json:"expected_charges"`
	CollectedPayments  decimal.Decimal `json:"collected_payments"`
	RefundedPayments   decimal.Decimal `json:"refunded_payments"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	Drift              decimal.Decimal `json:"drift"`
	Balanced           bool            `json:"balanced"`
}

// ReconcileSubscriptionQuery is an admin audit query.
type ReconcileSubscriptionQuery struct {
	Actor          actor.Actor
	SubscriptionID uint
}

type ReconcileSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
}

func NewReconcileSubscriptionUseCase(subscriptionRepo subscription.Repository) *ReconcileSubscriptionUseCase {
	return &ReconcileSubscriptionUseCase{subscriptionRepo: subscriptionRepo}
}

func (uc *ReconcileSubscriptionUseCase) Execute(ctx context.Context, q ReconcileSubscriptionQuery) (*ReconciliationDTO, error) {
	if !q.Actor.IsAdmin() && !q.Actor.IsSystem() {
		return nil, apperrors.NewForbiddenError("reconciliation is admin-only")
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, q.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}

	history, err := uc.subscriptionRepo.ListHistory(ctx, sub.ID())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load history").WithCause(err)
	}
	payments, err := uc.subscriptionRepo.ListPayments(ctx, sub.ID())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payments").WithCause(err)
	}

	expected := decimal.Zero
	for _, entry := range history {
		switch payload := entry.Payload().(type) {
		case subscription.ActivationPayload:
			expected = expected.Add(payload.AmountPaid)
		case subscription.RenewalPayload:
			expected = expected.Add(payload.Amount)
		case subscription.UpgradePayload:
			expected = expected.Add(payload.AdditionalDue)
		case subscription.DowngradePayload:
			expected = expected.Sub(payload.Credit)
		case subscription.CancellationPayload:
			if payload.RefundEligible {
				expected = expected.Sub(payload.RefundAmount)
			}
		}
	}

	collected := decimal.Zero
	refunded := decimal.Zero
	for _, record := range payments {
		switch record.Status() {
		case subscription.PaymentStatusRefunded:
			refunded = refunded.Add(record.Amount())
		default:
			collected = collected.Add(record.Amount())
		}
	}

	// Drift is what the ledger says should be in the bank versus what the
	// payment history actually recorded. The outstanding upgrade balance is
	// expected to be uncollected, so it offsets the difference.
	drift := expected.Sub(collected.Sub(refunded)).Sub(sub.OutstandingBalance()).Round(2)

	return &ReconciliationDTO{
		SubscriptionSID:    sub.SID(),
		ExpectedCharges:    expected.Round(2),
		CollectedPayments:  collected.Round(2),
		RefundedPayments:   refunded.Round(2),
		OutstandingBalance: sub.OutstandingBalance().Round(2),
		Drift:              drift,
		Balanced:           drift.IsZero(),
	}, nil
}
