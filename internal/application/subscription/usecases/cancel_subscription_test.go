package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandwave/internal/domain/shared/events"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/domain/usage"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
)

const gigabyte = uint64(1) << 30

func newCancelFixture(t *testing.T) (*CancelSubscriptionUseCase, *fakeSubscriptionRepo, *fakePlanRepo, *fakeUsageRepo, *capturingPublisher) {
	t.Helper()
	subRepo := newFakeSubscriptionRepo()
	planRepo := newFakePlanRepo()
	usageRepo := newFakeUsageRepo()
	publisher := &capturingPublisher{}

	uc := NewCancelSubscriptionUseCase(subRepo, planRepo, usageRepo, publisher,
		RefundPolicy{WindowDays: 30, UsageCapPercent: 10}, testLogger())
	return uc, subRepo, planRepo, usageRepo, publisher
}

func seedUsage(t *testing.T, usageRepo *fakeUsageRepo, subscriptionID uint, bytes uint64) {
	t.Helper()
	now := time.Now().UTC()
	period, err := usage.NewPeriodRecord(subscriptionID, now.AddDate(0, 0, -10), now.AddDate(0, 0, 20))
	require.NoError(t, err)
	require.NoError(t, period.Record(usage.Sample{BytesDown: bytes, ReportedAt: now.Add(-time.Hour)}))
	require.NoError(t, usageRepo.Create(context.Background(), period))
}

func TestCancelSubscription_FullRefundInsideWindow(t *testing.T) {
	uc, subRepo, planRepo, usageRepo, publisher := newCancelFixture(t)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 100*gigabyte)
	sub := seedActiveSubscription(t, subRepo, 42, p, 5)
	seedUsage(t, usageRepo, sub.ID(), 2*gigabyte) // 2% of the cap

	dto, err := uc.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: sub.ID(),
		Reason:         "moving abroad",
	})
	require.NoError(t, err)

	assert.Equal(t, vo.StatusCancelled.String(), dto.Status)
	require.NotNil(t, dto.Cancellation)
	assert.True(t, dto.Cancellation.RefundEligible)
	assert.True(t, dto.Cancellation.RefundAmount.Equal(decimal.NewFromInt(50)),
		"got %s", dto.Cancellation.RefundAmount)

	types := publisher.Types()
	require.Len(t, types, 1)
	assert.Equal(t, events.TypeSubscriptionCancelled, types[0])
}

func TestCancelSubscription_NoRefundOutsideWindow(t *testing.T) {
	uc, subRepo, planRepo, _, _ := newCancelFixture(t)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 100*gigabyte)
	sub := seedActiveSubscription(t, subRepo, 42, p, 40)

	dto, err := uc.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: sub.ID(),
		Reason:         "too expensive",
	})
	require.NoError(t, err)

	assert.Equal(t, vo.StatusCancelled.String(), dto.Status)
	require.NotNil(t, dto.Cancellation)
	assert.False(t, dto.Cancellation.RefundEligible)
	assert.True(t, dto.Cancellation.RefundAmount.IsZero())
}

func TestCancelSubscription_NoRefundOverUsageCap(t *testing.T) {
	uc, subRepo, planRepo, usageRepo, _ := newCancelFixture(t)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 100*gigabyte)
	sub := seedActiveSubscription(t, subRepo, 42, p, 5)
	seedUsage(t, usageRepo, sub.ID(), 50*gigabyte) // 50% of the cap

	dto, err := uc.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: sub.ID(),
		Reason:         "service issues",
	})
	require.NoError(t, err)

	assert.False(t, dto.Cancellation.RefundEligible)
}

func TestCancelSubscription_UnlimitedPlanIgnoresUsage(t *testing.T) {
	uc, subRepo, planRepo, usageRepo, _ := newCancelFixture(t)
	p := seedPlan(t, planRepo, "fiber-unlimited", "90.00", 0)
	sub := seedActiveSubscription(t, subRepo, 42, p, 5)
	seedUsage(t, usageRepo, sub.ID(), 500*gigabyte)

	dto, err := uc.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: sub.ID(),
		Reason:         "relocating",
	})
	require.NoError(t, err)

	assert.True(t, dto.Cancellation.RefundEligible)
	assert.True(t, dto.Cancellation.RefundAmount.Equal(decimal.NewFromInt(90)),
		"got %s", dto.Cancellation.RefundAmount)
}

func TestCancelSubscription_OwnershipEnforced(t *testing.T) {
	uc, subRepo, planRepo, _, publisher := newCancelFixture(t)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)
	sub := seedActiveSubscription(t, subRepo, 42, p, 5)

	_, err := uc.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 99, Role: actor.RoleCustomer},
		SubscriptionID: sub.ID(),
		Reason:         "not mine",
	})

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)
	assert.Empty(t, publisher.Events())

	// Admins may cancel on the customer's behalf.
	_, err = uc.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 7, Role: actor.RoleAdmin},
		SubscriptionID: sub.ID(),
		Reason:         "fraud detected",
	})
	require.NoError(t, err)
}

func TestCancelSubscription_AlreadyCancelled(t *testing.T) {
	uc, subRepo, planRepo, _, _ := newCancelFixture(t)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)
	sub := seedActiveSubscription(t, subRepo, 42, p, 5)

	cmd := CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: sub.ID(),
		Reason:         "first attempt",
	}
	_, err := uc.Execute(context.Background(), cmd)
	require.NoError(t, err)

	cmd.Reason = "second attempt"
	_, err = uc.Execute(context.Background(), cmd)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeInvalidState, appErr.Type)
}

func TestCancelSubscription_ReasonRequired(t *testing.T) {
	uc, _, _, _, _ := newCancelFixture(t)

	_, err := uc.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: 1,
	})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestCancelSubscription_NotFound(t *testing.T) {
	uc, _, _, _, _ := newCancelFixture(t)

	_, err := uc.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: 9999,
		Reason:         "whatever",
	})
	assert.True(t, apperrors.IsNotFoundError(err))
}
