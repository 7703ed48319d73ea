package subscription

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandwave/internal/domain/plan"
	vo "bandwave/internal/domain/subscription/valueobjects"
)

func testPlan(t *testing.T, planID uint, name, monthly string) *plan.Plan {
	t.Helper()
	p, err := plan.Reconstruct(plan.ReconstructParams{
		ID:           planID,
		SID:          "plan_test",
		Name:         name,
		Slug:         name,
		MonthlyPrice: decimal.RequireFromString(monthly),
		YearlyPrice:  decimal.RequireFromString(monthly).Mul(decimal.NewFromInt(10)),
		Currency:     "USD",
		SpeedMbps:    100,
		Status:       "active",
	})
	require.NoError(t, err)
	return p
}

func testPricing(t *testing.T, base string) vo.PricingSnapshot {
	t.Helper()
	amount := decimal.RequireFromString(base)
	pricing, err := vo.NewPricingSnapshot(amount, decimal.Zero, decimal.Zero, amount, "USD", "")
	require.NoError(t, err)
	return pricing
}

func testSubscription(t *testing.T, status vo.SubscriptionStatus, base string) *Subscription {
	t.Helper()
	start := time.Now().UTC().Add(-10 * 24 * time.Hour)
	sub, err := Reconstruct(ReconstructParams{
		ID:           1,
		SID:          "sub_test",
		UUID:         "11111111-1111-1111-1111-111111111111",
		CustomerID:   42,
		PlanID:       1,
		BillingCycle: vo.BillingCycleMonthly,
		Status:       status,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 30),
		Pricing:      testPricing(t, base),
		Version:      1,
		CreatedAt:    start,
		UpdatedAt:    start,
	})
	require.NoError(t, err)
	return sub
}

func TestNewSubscription(t *testing.T) {
	p := testPlan(t, 1, "fiber-100", "50.00")
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sub, err := NewSubscription(42, p, vo.BillingCycleMonthly, start, testPricing(t, "50.00"))
	require.NoError(t, err)

	assert.Equal(t, vo.StatusPending, sub.Status())
	assert.Equal(t, uint(42), sub.CustomerID())
	assert.Equal(t, start.AddDate(0, 0, 30), sub.EndDate())
	assert.Equal(t, 1, sub.Version())
	assert.NotEmpty(t, sub.SID())
	assert.NotEmpty(t, sub.UUID())

	require.Len(t, sub.PendingHistory(), 1)
	assert.Equal(t, HistoryEventCreated, sub.PendingHistory()[0].EventType())
}

func TestNewSubscription_Validation(t *testing.T) {
	p := testPlan(t, 1, "fiber-100", "50.00")
	pricing := testPricing(t, "50.00")

	_, err := NewSubscription(0, p, vo.BillingCycleMonthly, time.Time{}, pricing)
	assert.Error(t, err)

	_, err = NewSubscription(42, nil, vo.BillingCycleMonthly, time.Time{}, pricing)
	assert.Error(t, err)

	_, err = NewSubscription(42, p, vo.BillingCycle("weekly"), time.Time{}, pricing)
	assert.ErrorIs(t, err, vo.ErrInvalidBillingCycle)
}

func TestSubscription_Activate(t *testing.T) {
	sub := testSubscription(t, vo.StatusPending, "50.00")
	payment, err := NewPaymentRecord(decimal.RequireFromString("50.00"), "card", "txn-1", time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, sub.Activate("customer", payment))

	assert.Equal(t, vo.StatusActive, sub.Status())
	require.Len(t, sub.PendingPayments(), 1)
	require.Len(t, sub.PendingHistory(), 1)
	assert.Equal(t, HistoryEventActivated, sub.PendingHistory()[0].EventType())
}

func TestSubscription_Activate_NotPending(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")

	err := sub.Activate("customer", nil)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSubscription_Upgrade(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")
	newPlan := testPlan(t, 2, "fiber-500", "80.00")
	diff := decimal.RequireFromString("30.00")

	err := sub.Upgrade(newPlan, "fiber-100", testPricing(t, "80.00"), diff, "customer")
	require.NoError(t, err)

	assert.Equal(t, uint(2), sub.PlanID())
	assert.True(t, sub.Pricing().BasePrice().Equal(decimal.RequireFromString("80.00")))
	assert.True(t, sub.OutstandingBalance().Equal(diff))
	// Version only moves when the repository commits.
	assert.Equal(t, 1, sub.Version())
}

func TestSubscription_Upgrade_RejectsCheaperPlan(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")
	cheaper := testPlan(t, 2, "fiber-50", "30.00")

	err := sub.Upgrade(cheaper, "fiber-100", testPricing(t, "30.00"), decimal.Zero, "customer")
	assert.ErrorIs(t, err, ErrInvalidUpgrade)

	samePrice := testPlan(t, 3, "fiber-100-v2", "50.00")
	err = sub.Upgrade(samePrice, "fiber-100", testPricing(t, "50.00"), decimal.Zero, "customer")
	assert.ErrorIs(t, err, ErrInvalidUpgrade)
}

func TestSubscription_Downgrade_Immediate(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "80.00")
	cheaper := testPlan(t, 2, "fiber-50", "50.00")

	err := sub.Downgrade(cheaper, "fiber-500", testPricing(t, "50.00"),
		decimal.RequireFromString("15.00"), nil, "customer")
	require.NoError(t, err)

	assert.Equal(t, uint(2), sub.PlanID())
	assert.Nil(t, sub.ScheduledPlanID())
	require.Len(t, sub.PendingHistory(), 1)
	assert.Equal(t, HistoryEventDowngraded, sub.PendingHistory()[0].EventType())
}

func TestSubscription_Downgrade_Scheduled(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "80.00")
	cheaper := testPlan(t, 2, "fiber-50", "50.00")
	effective := time.Now().UTC().AddDate(0, 0, 20)

	err := sub.Downgrade(cheaper, "fiber-500", testPricing(t, "50.00"),
		decimal.Zero, &effective, "customer")
	require.NoError(t, err)

	// Plan and pricing are untouched until rollover applies the change.
	assert.Equal(t, uint(1), sub.PlanID())
	assert.True(t, sub.Pricing().BasePrice().Equal(decimal.RequireFromString("80.00")))
	require.NotNil(t, sub.ScheduledPlanID())
	assert.Equal(t, uint(2), *sub.ScheduledPlanID())
	require.NotNil(t, sub.ScheduledEffective())
	require.Len(t, sub.PendingHistory(), 1)
	assert.Equal(t, HistoryEventDowngradeScheduled, sub.PendingHistory()[0].EventType())
}

func TestSubscription_Downgrade_RejectsPricierPlan(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")
	pricier := testPlan(t, 2, "fiber-500", "80.00")

	err := sub.Downgrade(pricier, "fiber-100", testPricing(t, "80.00"), decimal.Zero, nil, "customer")
	assert.ErrorIs(t, err, ErrInvalidDowngrade)
}

func TestSubscription_ApplyScheduledChange(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "80.00")
	cheaper := testPlan(t, 2, "fiber-50", "50.00")
	effective := time.Now().UTC().AddDate(0, 0, 20)
	require.NoError(t, sub.Downgrade(cheaper, "fiber-500", testPricing(t, "50.00"),
		decimal.Zero, &effective, "customer"))

	err := sub.ApplyScheduledChange(cheaper, "fiber-500", testPricing(t, "50.00"), "system")
	require.NoError(t, err)

	assert.Equal(t, uint(2), sub.PlanID())
	assert.Nil(t, sub.ScheduledPlanID())
	assert.Nil(t, sub.ScheduledEffective())
}

func TestSubscription_ApplyScheduledChange_NoneScheduled(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "80.00")
	cheaper := testPlan(t, 2, "fiber-50", "50.00")

	err := sub.ApplyScheduledChange(cheaper, "fiber-500", testPricing(t, "50.00"), "system")
	assert.ErrorIs(t, err, ErrNoScheduledChange)
}

func TestSubscription_Cancel(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")
	now := time.Now().UTC()
	record := NewCancellationRecord(now, now, "moving abroad", true, decimal.RequireFromString("25.00"))

	require.NoError(t, sub.Cancel(record, "customer"))

	assert.Equal(t, vo.StatusCancelled, sub.Status())
	require.NotNil(t, sub.Cancellation())
	assert.Equal(t, "moving abroad", sub.Cancellation().Reason())
	assert.True(t, sub.Cancellation().RefundAmount().Equal(decimal.RequireFromString("25.00")))
}

func TestSubscription_Cancel_AlreadyCancelled(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")
	now := time.Now().UTC()
	record := NewCancellationRecord(now, now, "first", false, decimal.Zero)
	require.NoError(t, sub.Cancel(record, "customer"))

	err := sub.Cancel(NewCancellationRecord(now, now, "second", false, decimal.Zero), "customer")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, "first", sub.Cancellation().Reason())
	// Only the first cancellation appended history.
	assert.Len(t, sub.PendingHistory(), 1)
}

func TestSubscription_Cancel_RequiresReason(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")
	now := time.Now().UTC()

	err := sub.Cancel(NewCancellationRecord(now, now, "", false, decimal.Zero), "customer")
	assert.Error(t, err)
	assert.Equal(t, vo.StatusActive, sub.Status())
}

func TestSubscription_SuspendResume(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")

	require.NoError(t, sub.Suspend("payment overdue", "admin:7"))
	assert.Equal(t, vo.StatusSuspended, sub.Status())

	require.NoError(t, sub.Resume("admin:7"))
	assert.Equal(t, vo.StatusActive, sub.Status())
}

func TestSubscription_Suspend_FromPending(t *testing.T) {
	sub := testSubscription(t, vo.StatusPending, "50.00")

	err := sub.Suspend("payment overdue", "admin:7")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSubscription_Resume_FromActive(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")

	err := sub.Resume("admin:7")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSubscription_Renew(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")
	oldEnd := sub.EndDate()
	payment, err := NewPaymentRecord(decimal.RequireFromString("50.00"), "card", "txn-renew", time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, sub.Renew(payment, "customer"))

	assert.Equal(t, oldEnd.AddDate(0, 0, 30), sub.EndDate())
	assert.Equal(t, vo.StatusActive, sub.Status())
	require.Len(t, sub.PendingPayments(), 1)
}

func TestSubscription_CurrentPeriodStart(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")

	// Fresh subscription: the current period is the first cycle.
	assert.Equal(t, sub.StartDate(), sub.CurrentPeriodStart())

	oldEnd := sub.EndDate()
	require.NoError(t, sub.Renew(nil, "customer"))

	// After renewal the period anchor moves to the old boundary while the
	// start date stays put.
	assert.Equal(t, oldEnd, sub.CurrentPeriodStart())
	assert.True(t, sub.StartDate().Before(sub.CurrentPeriodStart()))
}

func TestSubscription_Renew_FromExpired(t *testing.T) {
	sub := testSubscription(t, vo.StatusExpired, "50.00")
	oldEnd := sub.EndDate()

	require.NoError(t, sub.Renew(nil, "customer"))

	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, oldEnd.AddDate(0, 0, 30), sub.EndDate())
}

func TestSubscription_Renew_FromCancelled(t *testing.T) {
	sub := testSubscription(t, vo.StatusCancelled, "50.00")

	err := sub.Renew(nil, "customer")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSubscription_MarkExpired(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")

	require.NoError(t, sub.MarkExpired("system"))
	assert.Equal(t, vo.StatusExpired, sub.Status())

	// Idempotent: marking an expired subscription again is a no-op.
	require.NoError(t, sub.MarkExpired("system"))
	assert.Len(t, sub.PendingHistory(), 1)
}

func TestSubscription_RemainingDays(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")

	assert.Equal(t, 20, sub.RemainingDays(sub.EndDate().AddDate(0, 0, -20)))
	assert.Equal(t, 0, sub.RemainingDays(sub.EndDate().Add(time.Hour)))
}

func TestSubscription_CommitVersionAndClearPending(t *testing.T) {
	sub := testSubscription(t, vo.StatusActive, "50.00")
	require.NoError(t, sub.Suspend("maintenance", "admin:1"))
	require.Len(t, sub.PendingHistory(), 1)

	sub.CommitVersion()
	sub.ClearPending()

	assert.Equal(t, 2, sub.Version())
	assert.Empty(t, sub.PendingHistory())
	assert.Empty(t, sub.PendingPayments())
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    vo.SubscriptionStatus
		to      vo.SubscriptionStatus
		allowed bool
	}{
		{vo.StatusPending, vo.StatusActive, true},
		{vo.StatusPending, vo.StatusExpired, true},
		{vo.StatusPending, vo.StatusSuspended, false},
		{vo.StatusActive, vo.StatusSuspended, true},
		{vo.StatusActive, vo.StatusCancelled, true},
		{vo.StatusActive, vo.StatusExpired, true},
		{vo.StatusSuspended, vo.StatusActive, true},
		{vo.StatusSuspended, vo.StatusCancelled, true},
		{vo.StatusSuspended, vo.StatusExpired, false},
		{vo.StatusCancelled, vo.StatusActive, false},
		{vo.StatusExpired, vo.StatusActive, true},
		{vo.StatusExpired, vo.StatusCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
