package usecases

import (
	"context"
	"time"

	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/domain/usage"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// maxRetries bounds the optimistic-lock retry loop when concurrent usage
// reports hit the same period.
const maxRetries = 3

// RecordUsageCommand ingests one usage sample from the access network.
type RecordUsageCommand struct {
	SubscriptionID  uint
	BytesUp         uint64
	BytesDown       uint64
	SessionDuration time.Duration
	SpeedMbps       float64
	ReportedAt      time.Time
}

// RecordUsageResult reports where the sample landed and which alert
// thresholds it newly crossed.
type RecordUsageResult struct {
	PeriodSID         string  `json:"period_sid"`
	UsagePercent      float64 `json:"usage_percent"`
	CrossedThresholds []int   `json:"crossed_thresholds,omitempty"`
}

type RecordUsageUseCase struct {
	usageRepo        usage.Repository
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	publisher        events.Publisher
	alertThresholds  []int
	logger           logger.Interface
}

func NewRecordUsageUseCase(
	usageRepo usage.Repository,
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	publisher events.Publisher,
	alertThresholds []int,
	logger logger.Interface,
) *RecordUsageUseCase {
	return &RecordUsageUseCase{
		usageRepo:        usageRepo,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		publisher:        publisher,
		alertThresholds:  alertThresholds,
		logger:           logger,
	}
}

func (uc *RecordUsageUseCase) Execute(ctx context.Context, cmd RecordUsageCommand) (*RecordUsageResult, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}

	p, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load plan").WithCause(err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("plan not found")
	}

	reportedAt := cmd.ReportedAt
	if reportedAt.IsZero() {
		reportedAt = time.Now().UTC()
	}

	sample := usage.Sample{
		BytesUp:         cmd.BytesUp,
		BytesDown:       cmd.BytesDown,
		SessionDuration: cmd.SessionDuration,
		SpeedMbps:       cmd.SpeedMbps,
		ReportedAt:      reportedAt,
	}

	// Concurrent reports for the same period contend on the version guard;
	// reload and replay the sample on conflict.
	var result *RecordUsageResult
	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err = uc.recordOnce(ctx, sub, p, sample)
		if err == nil {
			break
		}
		if !apperrors.IsConcurrentModificationError(err) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	for _, threshold := range result.CrossedThresholds {
		uc.logger.Infow("usage threshold crossed",
			"subscription_sid", sub.SID(),
			"threshold", threshold,
			"usage_percent", result.UsagePercent,
		)
		uc.publisher.Publish(ctx, events.NewEvent(events.TypeUsageAlert, sub.CustomerID(), map[string]any{
			"subscription_sid": sub.SID(),
			"threshold":        threshold,
			"usage_percent":    result.UsagePercent,
		}))
	}

	return result, nil
}

func (uc *RecordUsageUseCase) recordOnce(ctx context.Context, sub *subscription.Subscription,
	p *plan.Plan, sample usage.Sample) (*RecordUsageResult, error) {

	period, err := uc.usageRepo.GetBySubscriptionAndTime(ctx, sub.ID(), sample.ReportedAt)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load usage period").WithCause(err)
	}

	created := false
	if period == nil {
		// First sample of the cycle; the period is opened lazily against the
		// current cycle bounds, not the original start date, so a renewed
		// subscription gets a fresh non-overlapping period.
		period, err = usage.NewPeriodRecord(sub.ID(), sub.CurrentPeriodStart(), sub.EndDate())
		if err != nil {
			return nil, apperrors.NewValidationError("invalid usage period", err.Error())
		}
		created = true
	}

	if err := period.Record(sample); err != nil {
		return nil, apperrors.NewValidationError("invalid usage sample", err.Error())
	}

	crossed := period.CrossedThresholds(p.DataLimitBytes(), uc.alertThresholds)

	if created {
		err = uc.usageRepo.Create(ctx, period)
	} else {
		err = uc.usageRepo.Update(ctx, period)
	}
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist usage period").WithCause(err)
	}

	return &RecordUsageResult{
		PeriodSID:         period.SID(),
		UsagePercent:      period.UsagePercent(p.DataLimitBytes()),
		CrossedThresholds: crossed,
	}, nil
}
