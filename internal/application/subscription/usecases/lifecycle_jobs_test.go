package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/shared/actor"
)

// seedScheduledDowngrade stores an active subscription whose scheduled
// downgrade became effective in the past.
func seedScheduledDowngrade(t *testing.T, repo *fakeSubscriptionRepo, customerID uint,
	currentPlanID, scheduledPlanID uint, base string) *subscription.Subscription {

	t.Helper()
	start := time.Now().UTC().AddDate(0, 0, -10)
	effective := time.Now().UTC().Add(-time.Hour)
	amount := decimal.RequireFromString(base)
	pricing, err := vo.NewPricingSnapshot(amount, decimal.Zero, decimal.Zero, amount, "USD", "")
	require.NoError(t, err)

	sub, err := subscription.Reconstruct(subscription.ReconstructParams{
		ID:                 customerID, // unique enough for the fake store
		SID:                "sub_scheduled",
		UUID:               "22222222-2222-2222-2222-222222222222",
		CustomerID:         customerID,
		PlanID:             currentPlanID,
		BillingCycle:       vo.BillingCycleMonthly,
		Status:             vo.StatusActive,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, 30),
		Pricing:            pricing,
		OutstandingBalance: decimal.Zero,
		ScheduledPlanID:    &scheduledPlanID,
		ScheduledEffective: &effective,
		Version:            1,
		CreatedAt:          start,
		UpdatedAt:          start,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), sub))
	return sub
}

func TestApplyScheduledChanges(t *testing.T) {
	subRepo := newFakeSubscriptionRepo()
	planRepo := newFakePlanRepo()
	publisher := &capturingPublisher{}

	current := seedPlan(t, planRepo, "fiber-500", "80.00", 0)
	cheaper := seedPlan(t, planRepo, "fiber-100", "50.00", 0)
	sub := seedScheduledDowngrade(t, subRepo, 42, current.ID(), cheaper.ID(), "80.00")

	uc := NewApplyScheduledChangesUseCase(subRepo, planRepo, publisher, decimal.Zero, 0, testLogger())

	applied, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	updated, err := subRepo.GetByID(context.Background(), sub.ID())
	require.NoError(t, err)
	assert.Equal(t, cheaper.ID(), updated.PlanID())
	assert.Nil(t, updated.ScheduledPlanID())
	assert.True(t, updated.Pricing().BasePrice().Equal(decimal.NewFromInt(50)))

	// Idempotent: the cleared schedule does not re-apply.
	applied, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestApplyScheduledChanges_SkipsNotYetDue(t *testing.T) {
	subRepo := newFakeSubscriptionRepo()
	planRepo := newFakePlanRepo()
	publisher := &capturingPublisher{}

	current := seedPlan(t, planRepo, "fiber-500", "80.00", 0)
	cheaper := seedPlan(t, planRepo, "fiber-100", "50.00", 0)
	sub := seedActiveSubscription(t, subRepo, 42, current, 5)

	downgradeUC := NewDowngradePlanUseCase(subRepo, planRepo, publisher, decimal.Zero, testLogger())
	effective := time.Now().UTC().AddDate(0, 0, 20)
	_, err := downgradeUC.Execute(context.Background(), DowngradePlanCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: sub.ID(),
		NewPlanID:      cheaper.ID(),
		EffectiveDate:  &effective,
	})
	require.NoError(t, err)

	uc := NewApplyScheduledChangesUseCase(subRepo, planRepo, publisher, decimal.Zero, 0, testLogger())

	applied, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)

	unchanged, err := subRepo.GetByID(context.Background(), sub.ID())
	require.NoError(t, err)
	assert.Equal(t, current.ID(), unchanged.PlanID())
	require.NotNil(t, unchanged.ScheduledPlanID())
}

func TestExpireSubscriptions(t *testing.T) {
	subRepo := newFakeSubscriptionRepo()
	planRepo := newFakePlanRepo()
	publisher := &capturingPublisher{}

	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)
	ended := seedActiveSubscription(t, subRepo, 42, p, 40) // 30-day cycle ended 10 days ago
	running := seedActiveSubscription(t, subRepo, 43, p, 5)

	uc := NewExpireSubscriptionsUseCase(subRepo, publisher, 0, testLogger())

	expired, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	endedSub, err := subRepo.GetByID(context.Background(), ended.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusExpired, endedSub.Status())

	runningSub, err := subRepo.GetByID(context.Background(), running.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, runningSub.Status())

	// Second run finds nothing left to expire.
	expired, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
}
