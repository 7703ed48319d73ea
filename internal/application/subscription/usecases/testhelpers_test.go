package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/domain/usage"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// fakeSubscriptionRepo is an in-memory subscription store with the same
// version-guard semantics as the database-backed repository.
type fakeSubscriptionRepo struct {
	mu     sync.Mutex
	nextID uint
	subs   map[uint]*subscription.Subscription

	failUpdate error
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{nextID: 1, subs: make(map[uint]*subscription.Subscription)}
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID() == 0 {
		if err := sub.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	sub.ClearPending()
	r.subs[sub.ID()] = sub
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, id uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[id], nil
}

func (r *fakeSubscriptionRepo) GetBySID(_ context.Context, sid string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.SID() == sid {
			return sub, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) GetCurrentByCustomer(_ context.Context, customerID uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.CustomerID() == customerID && sub.Status().CountsTowardSingleActive() {
			return sub, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) ListByCustomer(_ context.Context, customerID uint) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, sub := range r.subs {
		if sub.CustomerID() == customerID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	stored, ok := r.subs[sub.ID()]
	if !ok {
		return apperrors.NewNotFoundError("subscription not found")
	}
	if stored.Version() != sub.Version() {
		return apperrors.NewConcurrentModificationError("subscription was modified concurrently")
	}
	sub.CommitVersion()
	sub.ClearPending()
	r.subs[sub.ID()] = sub
	return nil
}

func (r *fakeSubscriptionRepo) ListHistory(context.Context, uint) ([]*subscription.HistoryEntry, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) ListPayments(context.Context, uint) ([]*subscription.PaymentRecord, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) FindPeriodEnded(_ context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, sub := range r.subs {
		if sub.Status() == vo.StatusActive && asOf.After(sub.EndDate()) {
			out = append(out, sub)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) FindScheduledChangesDue(_ context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, sub := range r.subs {
		if sub.Status() == vo.StatusActive && sub.ScheduledEffective() != nil && !asOf.Before(*sub.ScheduledEffective()) {
			out = append(out, sub)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakePlanRepo struct {
	mu     sync.Mutex
	nextID uint
	plans  map[uint]*plan.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{nextID: 1, plans: make(map[uint]*plan.Plan)}
}

func (r *fakePlanRepo) Create(_ context.Context, p *plan.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID() == 0 {
		if err := p.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.plans[p.ID()] = p
	return nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id uint) (*plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plans[id], nil
}

func (r *fakePlanRepo) GetBySID(_ context.Context, sid string) (*plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.SID() == sid {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) GetBySlug(_ context.Context, slug string) (*plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.Slug() == slug {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) ListPublic(_ context.Context) ([]*plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*plan.Plan
	for _, p := range r.plans {
		if p.IsPublic() && p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) Update(_ context.Context, p *plan.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID()] = p
	return nil
}

type fakeUsageRepo struct {
	mu      sync.Mutex
	nextID  uint
	periods map[uint][]*usage.PeriodRecord
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{nextID: 1, periods: make(map[uint][]*usage.PeriodRecord)}
}

func (r *fakeUsageRepo) Create(_ context.Context, record *usage.PeriodRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID() == 0 {
		if err := record.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.periods[record.SubscriptionID()] = append(r.periods[record.SubscriptionID()], record)
	return nil
}

func (r *fakeUsageRepo) GetByID(_ context.Context, id uint) (*usage.PeriodRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, records := range r.periods {
		for _, record := range records {
			if record.ID() == id {
				return record, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeUsageRepo) GetBySubscriptionAndTime(_ context.Context, subscriptionID uint, at time.Time) (*usage.PeriodRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.periods[subscriptionID] {
		if record.Contains(at) {
			return record, nil
		}
	}
	return nil, nil
}

func (r *fakeUsageRepo) ListBySubscription(_ context.Context, subscriptionID uint) ([]*usage.PeriodRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.periods[subscriptionID], nil
}

func (r *fakeUsageRepo) Update(_ context.Context, record *usage.PeriodRecord) error {
	record.CommitVersion()
	return nil
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func (p *capturingPublisher) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func seedPlan(t *testing.T, repo *fakePlanRepo, name, monthly string, dataLimitBytes uint64) *plan.Plan {
	t.Helper()
	p, err := plan.NewPlan(name, name, "", decimal.RequireFromString(monthly),
		decimal.RequireFromString(monthly).Mul(decimal.NewFromInt(10)), "USD", dataLimitBytes, 100)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func seedActiveSubscription(t *testing.T, repo *fakeSubscriptionRepo, customerID uint,
	p *plan.Plan, startedDaysAgo int) *subscription.Subscription {

	t.Helper()
	start := time.Now().UTC().AddDate(0, 0, -startedDaysAgo)
	pricing, err := vo.NewPricingSnapshot(p.MonthlyPrice(), decimal.Zero, decimal.Zero,
		p.MonthlyPrice(), "USD", "")
	require.NoError(t, err)

	sub, err := subscription.NewSubscription(customerID, p, vo.BillingCycleMonthly, start, pricing)
	require.NoError(t, err)
	require.NoError(t, sub.Activate("customer", nil))
	require.NoError(t, repo.Create(context.Background(), sub))
	return sub
}

func testLogger() logger.Interface {
	return logger.NewLogger()
}
