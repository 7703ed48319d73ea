package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/planrequest"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/domain/usage"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

type fakeRequestRepo struct {
	mu       sync.Mutex
	nextID   uint
	requests map[uint]*planrequest.Request

	failUpdateAfter int // fail Update calls once this many have succeeded; -1 never fails
	updateCalls     int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{nextID: 1, requests: make(map[uint]*planrequest.Request), failUpdateAfter: -1}
}

func (r *fakeRequestRepo) Create(_ context.Context, req *planrequest.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID() == 0 {
		if err := req.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.requests[req.ID()] = req
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id uint) (*planrequest.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[id], nil
}

func (r *fakeRequestRepo) GetBySID(_ context.Context, sid string) (*planrequest.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.SID() == sid {
			return req, nil
		}
	}
	return nil, nil
}

func (r *fakeRequestRepo) GetPendingByCustomer(_ context.Context, customerID uint) (*planrequest.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.CustomerID() == customerID && req.Status() == planrequest.StatusPending {
			return req, nil
		}
	}
	return nil, nil
}

func (r *fakeRequestRepo) ListByCustomer(_ context.Context, customerID uint) ([]*planrequest.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*planrequest.Request
	for _, req := range r.requests {
		if req.CustomerID() == customerID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) ListQueue(_ context.Context, limit, offset int) ([]*planrequest.Request, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*planrequest.Request
	for _, req := range r.requests {
		if req.Status() == planrequest.StatusPending {
			pending = append(pending, req)
		}
	}
	total := int64(len(pending))
	if offset >= len(pending) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(pending) {
		end = len(pending)
	}
	return pending[offset:end], total, nil
}

func (r *fakeRequestRepo) Update(_ context.Context, req *planrequest.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdateAfter >= 0 && r.updateCalls >= r.failUpdateAfter {
		return apperrors.NewConcurrentModificationError("request was modified concurrently")
	}
	r.updateCalls++
	req.CommitVersion()
	r.requests[req.ID()] = req
	return nil
}

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

func (r *fakeSubscriptionRepo) GetBySID(context.Context, string) (*subscription.Subscription, error) {
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

func (r *fakeSubscriptionRepo) ListByCustomer(context.Context, uint) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
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

func (r *fakeSubscriptionRepo) FindPeriodEnded(context.Context, time.Time, int) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) FindScheduledChangesDue(context.Context, time.Time, int) ([]*subscription.Subscription, error) {
	return nil, nil
}

type fakePlanRepo struct {
	mu     sync.Mutex
	nextID uint
	plans  map[uint]*plan.Plan

	failGetByID error
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
	if r.failGetByID != nil {
		return nil, r.failGetByID
	}
	return r.plans[id], nil
}

func (r *fakePlanRepo) GetBySID(context.Context, string) (*plan.Plan, error)  { return nil, nil }
func (r *fakePlanRepo) GetBySlug(context.Context, string) (*plan.Plan, error) { return nil, nil }
func (r *fakePlanRepo) ListPublic(context.Context) ([]*plan.Plan, error)      { return nil, nil }
func (r *fakePlanRepo) Update(context.Context, *plan.Plan) error              { return nil }

type fakeUsageRepo struct{}

func (fakeUsageRepo) Create(context.Context, *usage.PeriodRecord) error { return nil }
func (fakeUsageRepo) GetByID(context.Context, uint) (*usage.PeriodRecord, error) {
	return nil, nil
}
func (fakeUsageRepo) GetBySubscriptionAndTime(context.Context, uint, time.Time) (*usage.PeriodRecord, error) {
	return nil, nil
}
func (fakeUsageRepo) ListBySubscription(context.Context, uint) ([]*usage.PeriodRecord, error) {
	return nil, nil
}
func (fakeUsageRepo) Update(context.Context, *usage.PeriodRecord) error { return nil }

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
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

func seedPlan(t *testing.T, repo *fakePlanRepo, name, monthly string) *plan.Plan {
	t.Helper()
	p, err := plan.NewPlan(name, name, "", decimal.RequireFromString(monthly),
		decimal.RequireFromString(monthly).Mul(decimal.NewFromInt(10)), "USD", 0, 100)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func seedActiveSubscription(t *testing.T, repo *fakeSubscriptionRepo, customerID uint, p *plan.Plan) *subscription.Subscription {
	t.Helper()
	pricing, err := vo.NewPricingSnapshot(p.MonthlyPrice(), decimal.Zero, decimal.Zero,
		p.MonthlyPrice(), "USD", "")
	require.NoError(t, err)

	sub, err := subscription.NewSubscription(customerID, p, vo.BillingCycleMonthly,
		time.Now().UTC().AddDate(0, 0, -5), pricing)
	require.NoError(t, err)
	require.NoError(t, sub.Activate("customer", nil))
	require.NoError(t, repo.Create(context.Background(), sub))
	return sub
}

func testLogger() logger.Interface {
	return logger.NewLogger()
}
