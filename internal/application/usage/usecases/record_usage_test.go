package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/domain/usage"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

const gigabyte = uint64(1) << 30

// fakeUsageRepo persists snapshots the way the real repository reconstructs
// aggregates per load: a failed Update leaves the stored state untouched, so
// a double-apply in the retry loop shows up in the totals.
type fakeUsageRepo struct {
	mu      sync.Mutex
	nextID  uint
	periods []*usage.PeriodRecord

	// conflictsLeft makes the next N Updates fail with an optimistic-lock
	// conflict before succeeding.
	conflictsLeft int

	// createLosesRace simulates a concurrent first ingest winning the
	// insert: Create stores an empty row for the same bounds and reports a
	// conflict so the caller reloads the winning row.
	createLosesRace bool
}

func snapshotPeriod(p *usage.PeriodRecord) (*usage.PeriodRecord, error) {
	return usage.Reconstruct(usage.ReconstructParams{
		ID:                p.ID(),
		SID:               p.SID(),
		SubscriptionID:    p.SubscriptionID(),
		PeriodStart:       p.PeriodStart(),
		PeriodEnd:         p.PeriodEnd(),
		TotalBytesUp:      p.TotalBytesUp(),
		TotalBytesDown:    p.TotalBytesDown(),
		SessionCount:      p.SessionCount(),
		TotalDuration:     p.TotalDuration(),
		AvgSpeedMbps:      p.AvgSpeedMbps(),
		PeakSpeedMbps:     p.PeakSpeedMbps(),
		SpeedSamples:      p.SpeedSamples(),
		Daily:             p.DailyBuckets(),
		AlertedThresholds: p.AlertedThresholds(),
		Version:           p.Version(),
		CreatedAt:         p.CreatedAt(),
		UpdatedAt:         p.UpdatedAt(),
	})
}

func (r *fakeUsageRepo) Create(_ context.Context, record *usage.PeriodRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createLosesRace {
		r.createLosesRace = false
		winner, err := usage.NewPeriodRecord(record.SubscriptionID(), record.PeriodStart(), record.PeriodEnd())
		if err != nil {
			return err
		}
		r.nextID++
		if err := winner.SetID(r.nextID); err != nil {
			return err
		}
		stored, err := snapshotPeriod(winner)
		if err != nil {
			return err
		}
		r.periods = append(r.periods, stored)
		return apperrors.NewConcurrentModificationError("usage period was created concurrently")
	}
	r.nextID++
	if err := record.SetID(r.nextID); err != nil {
		return err
	}
	stored, err := snapshotPeriod(record)
	if err != nil {
		return err
	}
	r.periods = append(r.periods, stored)
	return nil
}

func (r *fakeUsageRepo) GetByID(_ context.Context, id uint) (*usage.PeriodRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.periods {
		if p.ID() == id {
			return snapshotPeriod(p)
		}
	}
	return nil, nil
}

func (r *fakeUsageRepo) GetBySubscriptionAndTime(_ context.Context, subscriptionID uint, at time.Time) (*usage.PeriodRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.periods {
		if p.SubscriptionID() == subscriptionID && p.Contains(at) {
			return snapshotPeriod(p)
		}
	}
	return nil, nil
}

func (r *fakeUsageRepo) ListBySubscription(_ context.Context, subscriptionID uint) ([]*usage.PeriodRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*usage.PeriodRecord
	for _, p := range r.periods {
		if p.SubscriptionID() == subscriptionID {
			snap, err := snapshotPeriod(p)
			if err != nil {
				return nil, err
			}
			out = append(out, snap)
		}
	}
	return out, nil
}

func (r *fakeUsageRepo) Update(_ context.Context, record *usage.PeriodRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return apperrors.NewConcurrentModificationError("usage period was modified concurrently")
	}
	record.CommitVersion()
	stored, err := snapshotPeriod(record)
	if err != nil {
		return err
	}
	for i, p := range r.periods {
		if p.ID() == record.ID() {
			r.periods[i] = stored
			return nil
		}
	}
	return apperrors.NewConcurrentModificationError("usage period was modified concurrently")
}

type fakeSubscriptionRepo struct {
	sub *subscription.Subscription
}

func (r *fakeSubscriptionRepo) Create(context.Context, *subscription.Subscription) error { return nil }

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, id uint) (*subscription.Subscription, error) {
	if r.sub != nil && r.sub.ID() == id {
		return r.sub, nil
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) GetBySID(context.Context, string) (*subscription.Subscription, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) GetCurrentByCustomer(context.Context, uint) (*subscription.Subscription, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) ListByCustomer(context.Context, uint) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) Update(context.Context, *subscription.Subscription) error { return nil }

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
	plan *plan.Plan
}

func (r *fakePlanRepo) Create(context.Context, *plan.Plan) error { return nil }

func (r *fakePlanRepo) GetByID(_ context.Context, id uint) (*plan.Plan, error) {
	if r.plan != nil && r.plan.ID() == id {
		return r.plan, nil
	}
	return nil, nil
}

func (r *fakePlanRepo) GetBySID(context.Context, string) (*plan.Plan, error)  { return nil, nil }
func (r *fakePlanRepo) GetBySlug(context.Context, string) (*plan.Plan, error) { return nil, nil }
func (r *fakePlanRepo) ListPublic(context.Context) ([]*plan.Plan, error)      { return nil, nil }
func (r *fakePlanRepo) Update(context.Context, *plan.Plan) error              { return nil }

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

type recordFixture struct {
	uc        *RecordUsageUseCase
	usageRepo *fakeUsageRepo
	publisher *capturingPublisher
	sub       *subscription.Subscription
}

// newRecordFixture wires an active subscription on a plan with the given data
// cap (zero means unlimited).
func newRecordFixture(t *testing.T, dataLimitBytes uint64) *recordFixture {
	t.Helper()

	p, err := plan.NewPlan("fiber-100", "fiber-100", "", decimal.RequireFromString("50.00"),
		decimal.RequireFromString("500.00"), "USD", dataLimitBytes, 100)
	require.NoError(t, err)
	require.NoError(t, p.SetID(1))

	pricing, err := vo.NewPricingSnapshot(p.MonthlyPrice(), decimal.Zero, decimal.Zero,
		p.MonthlyPrice(), "USD", "")
	require.NoError(t, err)

	sub, err := subscription.NewSubscription(42, p, vo.BillingCycleMonthly,
		time.Now().UTC().AddDate(0, 0, -5), pricing)
	require.NoError(t, err)
	require.NoError(t, sub.SetID(7))

	f := &recordFixture{
		usageRepo: &fakeUsageRepo{},
		publisher: &capturingPublisher{},
		sub:       sub,
	}
	f.uc = NewRecordUsageUseCase(f.usageRepo, &fakeSubscriptionRepo{sub: sub},
		&fakePlanRepo{plan: p}, f.publisher, []int{80, 90, 100}, logger.NewLogger())
	return f
}

func TestRecordUsage_OpensPeriodLazily(t *testing.T) {
	f := newRecordFixture(t, 100*gigabyte)

	result, err := f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesUp:        gigabyte,
		BytesDown:      4 * gigabyte,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.PeriodSID)
	assert.InDelta(t, 5.0, result.UsagePercent, 0.01)
	assert.Empty(t, result.CrossedThresholds)

	periods, err := f.usageRepo.ListBySubscription(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, f.sub.StartDate(), periods[0].PeriodStart())
	assert.Equal(t, f.sub.EndDate(), periods[0].PeriodEnd())
}

func TestRecordUsage_ReusesExistingPeriod(t *testing.T) {
	f := newRecordFixture(t, 100*gigabyte)

	for i := 0; i < 3; i++ {
		_, err := f.uc.Execute(context.Background(), RecordUsageCommand{
			SubscriptionID: 7,
			BytesDown:      gigabyte,
		})
		require.NoError(t, err)
	}

	periods, err := f.usageRepo.ListBySubscription(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, uint64(3*gigabyte), periods[0].TotalBytes())
	assert.Equal(t, 3, periods[0].SessionCount())
}

func TestRecordUsage_FirstIngestRaceConvergesOnOneRow(t *testing.T) {
	f := newRecordFixture(t, 100*gigabyte)
	f.usageRepo.createLosesRace = true

	result, err := f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      gigabyte,
	})
	require.NoError(t, err)

	// The losing insert reloads the winning row: one period for the cycle,
	// carrying exactly one ingest's worth of traffic.
	periods, err := f.usageRepo.ListBySubscription(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, uint64(gigabyte), periods[0].TotalBytes())
	assert.Equal(t, 1, periods[0].SessionCount())
	assert.Equal(t, periods[0].SID(), result.PeriodSID)
}

func TestRecordUsage_RenewalOpensFreshPeriod(t *testing.T) {
	f := newRecordFixture(t, 100*gigabyte)
	require.NoError(t, f.sub.Activate("customer", nil))

	_, err := f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      gigabyte,
	})
	require.NoError(t, err)

	firstEnd := f.sub.EndDate()
	require.NoError(t, f.sub.Renew(nil, "system"))

	// A sample past the old boundary lands in a fresh period anchored at the
	// boundary, not at the original start date.
	_, err = f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      gigabyte,
		ReportedAt:     firstEnd.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	periods, err := f.usageRepo.ListBySubscription(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, firstEnd, periods[1].PeriodStart())
	assert.Equal(t, f.sub.EndDate(), periods[1].PeriodEnd())
	assert.False(t, periods[1].PeriodStart().Before(periods[0].PeriodEnd()),
		"renewed cycle must not overlap the previous period")
	assert.Equal(t, uint64(gigabyte), periods[1].TotalBytes())
}

func TestRecordUsage_PublishesAlerts(t *testing.T) {
	f := newRecordFixture(t, 100*gigabyte)

	result, err := f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      85 * gigabyte,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{80}, result.CrossedThresholds)

	evs := f.publisher.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeUsageAlert, evs[0].Type)
	assert.Equal(t, uint(42), evs[0].CustomerID)
	assert.Equal(t, 80, evs[0].Payload["threshold"])

	// A replayed report at the same level does not re-alert.
	result, err = f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      gigabyte,
	})
	require.NoError(t, err)
	assert.Empty(t, result.CrossedThresholds)
	assert.Len(t, f.publisher.Events(), 1)
}

func TestRecordUsage_JumpFiresAllThresholds(t *testing.T) {
	f := newRecordFixture(t, 100*gigabyte)

	result, err := f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      101 * gigabyte,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{80, 90, 100}, result.CrossedThresholds)
	assert.Len(t, f.publisher.Events(), 3)
}

func TestRecordUsage_UnlimitedPlanNeverAlerts(t *testing.T) {
	f := newRecordFixture(t, 0)

	result, err := f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      5000 * gigabyte,
	})
	require.NoError(t, err)
	assert.Zero(t, result.UsagePercent)
	assert.Empty(t, result.CrossedThresholds)
	assert.Empty(t, f.publisher.Events())
}

func TestRecordUsage_RetriesOnVersionConflict(t *testing.T) {
	f := newRecordFixture(t, 100*gigabyte)

	// Seed the period so the sample goes down the Update path.
	_, err := f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      gigabyte,
	})
	require.NoError(t, err)

	f.usageRepo.conflictsLeft = 2

	_, err = f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      gigabyte,
	})
	require.NoError(t, err, "two conflicts fit inside the retry budget")

	// The conflicted attempts were discarded: the sample landed exactly
	// once on top of the seed ingest.
	periods, err := f.usageRepo.ListBySubscription(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, uint64(2*gigabyte), periods[0].TotalBytes())
	assert.Equal(t, 2, periods[0].SessionCount())

	f.usageRepo.conflictsLeft = maxRetries

	_, err = f.uc.Execute(context.Background(), RecordUsageCommand{
		SubscriptionID: 7,
		BytesDown:      gigabyte,
	})
	assert.True(t, apperrors.IsConcurrentModificationError(err))
}

func TestRecordUsage_SubscriptionNotFound(t *testing.T) {
	f := newRecordFixture(t, 0)

	_, err := f.uc.Execute(context.Background(), RecordUsageCommand{SubscriptionID: 9999})
	assert.True(t, apperrors.IsNotFoundError(err))
}
