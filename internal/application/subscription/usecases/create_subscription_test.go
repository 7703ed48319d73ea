package usecases

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
)

func newCreateFixture(t *testing.T, taxRatePercent int64) (*CreateSubscriptionUseCase, *fakeSubscriptionRepo, *fakePlanRepo, *capturingPublisher) {
	t.Helper()
	subRepo := newFakeSubscriptionRepo()
	planRepo := newFakePlanRepo()
	publisher := &capturingPublisher{}

	uc := NewCreateSubscriptionUseCase(subRepo, planRepo, publisher,
		decimal.NewFromInt(taxRatePercent), testLogger())
	return uc, subRepo, planRepo, publisher
}

func TestCreateSubscription(t *testing.T) {
	uc, _, planRepo, publisher := newCreateFixture(t, 18)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)

	dto, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
		Actor:        actor.Actor{ID: 42, Role: actor.RoleCustomer},
		CustomerID:   42,
		PlanID:       p.ID(),
		BillingCycle: "monthly",
	})
	require.NoError(t, err)

	assert.Equal(t, vo.StatusPending.String(), dto.Status)
	assert.Equal(t, uint(42), dto.CustomerID)
	assert.Equal(t, p.ID(), dto.PlanID)
	assert.True(t, dto.Pricing.BasePrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, dto.Pricing.TaxAmount.Equal(decimal.RequireFromString("9")), "tax %s", dto.Pricing.TaxAmount)
	assert.True(t, dto.Pricing.Total.Equal(decimal.RequireFromString("59")), "total %s", dto.Pricing.Total)

	types := publisher.Types()
	require.Len(t, types, 1)
	assert.Equal(t, events.TypeSubscriptionCreated, types[0])
}

func TestCreateSubscription_WithDiscount(t *testing.T) {
	uc, _, planRepo, _ := newCreateFixture(t, 0)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)

	dto, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
		Actor:        actor.Actor{ID: 42, Role: actor.RoleCustomer},
		CustomerID:   42,
		PlanID:       p.ID(),
		BillingCycle: "monthly",
		DiscountCode: "WELCOME10",
	})
	require.NoError(t, err)

	assert.True(t, dto.Pricing.Discount.Equal(decimal.NewFromInt(5)), "discount %s", dto.Pricing.Discount)
	assert.True(t, dto.Pricing.Total.Equal(decimal.NewFromInt(45)), "total %s", dto.Pricing.Total)
	assert.Equal(t, "WELCOME10", dto.Pricing.DiscountCode)
}

func TestCreateSubscription_SingleActivePerCustomer(t *testing.T) {
	uc, subRepo, planRepo, publisher := newCreateFixture(t, 0)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)
	seedActiveSubscription(t, subRepo, 42, p, 5)

	_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
		Actor:        actor.Actor{ID: 42, Role: actor.RoleCustomer},
		CustomerID:   42,
		PlanID:       p.ID(),
		BillingCycle: "monthly",
	})

	assert.True(t, apperrors.IsConflictError(err))
	assert.ErrorIs(t, err, subscription.ErrDuplicateActiveSubscription)
	assert.Empty(t, publisher.Events())
}

func TestCreateSubscription_CancelledDoesNotBlockNew(t *testing.T) {
	uc, subRepo, planRepo, _ := newCreateFixture(t, 0)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)

	old := seedActiveSubscription(t, subRepo, 42, p, 5)
	cancelUC := NewCancelSubscriptionUseCase(subRepo, planRepo, newFakeUsageRepo(),
		events.NewNoopPublisher(), RefundPolicy{WindowDays: 30, UsageCapPercent: 10}, testLogger())
	_, err := cancelUC.Execute(context.Background(), CancelSubscriptionCommand{
		Actor:          actor.Actor{ID: 42, Role: actor.RoleCustomer},
		SubscriptionID: old.ID(),
		Reason:         "starting over",
	})
	require.NoError(t, err)

	dto, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
		Actor:        actor.Actor{ID: 42, Role: actor.RoleCustomer},
		CustomerID:   42,
		PlanID:       p.ID(),
		BillingCycle: "monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, vo.StatusPending.String(), dto.Status)
}

func TestCreateSubscription_InvalidBillingCycle(t *testing.T) {
	uc, _, planRepo, _ := newCreateFixture(t, 0)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)

	_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
		Actor:        actor.Actor{ID: 42, Role: actor.RoleCustomer},
		CustomerID:   42,
		PlanID:       p.ID(),
		BillingCycle: "weekly",
	})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestCreateSubscription_InactivePlan(t *testing.T) {
	uc, _, planRepo, _ := newCreateFixture(t, 0)
	p := seedPlan(t, planRepo, "fiber-legacy", "20.00", 0)
	p.Deactivate()

	_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
		Actor:        actor.Actor{ID: 42, Role: actor.RoleCustomer},
		CustomerID:   42,
		PlanID:       p.ID(),
		BillingCycle: "monthly",
	})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestCreateSubscription_PlanNotFound(t *testing.T) {
	uc, _, _, _ := newCreateFixture(t, 0)

	_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
		Actor:        actor.Actor{ID: 42, Role: actor.RoleCustomer},
		CustomerID:   42,
		PlanID:       9999,
		BillingCycle: "monthly",
	})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestCreateSubscription_OwnershipEnforced(t *testing.T) {
	uc, _, planRepo, _ := newCreateFixture(t, 0)
	p := seedPlan(t, planRepo, "fiber-100", "50.00", 0)

	_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
		Actor:        actor.Actor{ID: 99, Role: actor.RoleCustomer},
		CustomerID:   42,
		PlanID:       p.ID(),
		BillingCycle: "monthly",
	})

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)
}
