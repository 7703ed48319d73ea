package usecases

import (
	"context"
	"time"

	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/domain/usage"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
)

// UsageSummaryDTO is the per-period usage view.
type UsageSummaryDTO struct {
	PeriodSID         string              `json:"period_sid"`
	SubscriptionSID   string              `json:"subscription_sid"`
	PeriodStart       time.Time           `json:"period_start"`
	PeriodEnd         time.Time           `json:"period_end"`
	TotalBytesUp      uint64              `json:"total_bytes_up"`
	TotalBytesDown    uint64              `json:"total_bytes_down"`
	TotalBytes        uint64              `json:"total_bytes"`
	SessionCount      int                 `json:"session_count"`
	TotalDuration     string              `json:"total_duration"`
	AvgSpeedMbps      float64             `json:"avg_speed_mbps"`
	PeakSpeedMbps     float64             `json:"peak_speed_mbps"`
	DataLimitBytes    uint64              `json:"data_limit_bytes"`
	Unlimited         bool                `json:"unlimited"`
	UsagePercent      float64             `json:"usage_percent"`
	AlertedThresholds []int               `json:"alerted_thresholds,omitempty"`
	Daily             []usage.DailyBucket `json:"daily,omitempty"`
}

// GetUsageSummaryQuery fetches the usage summary for the period containing
// At (defaults to now).
type GetUsageSummaryQuery struct {
	Actor          actor.Actor
	SubscriptionID uint
	At             *time.Time
}

type GetUsageSummaryUseCase struct {
	usageRepo        usage.Repository
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
}

func NewGetUsageSummaryUseCase(
	usageRepo usage.Repository,
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
) *GetUsageSummaryUseCase {
	return &GetUsageSummaryUseCase{
		usageRepo:        usageRepo,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
	}
}

func (uc *GetUsageSummaryUseCase) Execute(ctx context.Context, q GetUsageSummaryQuery) (*UsageSummaryDTO, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, q.SubscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	if !q.Actor.Owns(sub.CustomerID()) {
		return nil, apperrors.NewForbiddenError("cannot view another customer's usage")
	}

	p, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load plan").WithCause(err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("plan not found")
	}

	at := time.Now().UTC()
	if q.At != nil {
		at = q.At.UTC()
	}

	period, err := uc.usageRepo.GetBySubscriptionAndTime(ctx, sub.ID(), at)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load usage period").WithCause(err)
	}

	dto := &UsageSummaryDTO{
		SubscriptionSID: sub.SID(),
		PeriodStart:     sub.StartDate(),
		PeriodEnd:       sub.EndDate(),
		DataLimitBytes:  p.DataLimitBytes(),
		Unlimited:       p.IsUnlimited(),
	}
	if period == nil {
		// No samples yet this cycle: an empty summary, not an error.
		dto.TotalDuration = time.Duration(0).String()
		return dto, nil
	}

	dto.PeriodSID = period.SID()
	dto.PeriodStart = period.PeriodStart()
	dto.PeriodEnd = period.PeriodEnd()
	dto.TotalBytesUp = period.TotalBytesUp()
	dto.TotalBytesDown = period.TotalBytesDown()
	dto.TotalBytes = period.TotalBytes()
	dto.SessionCount = period.SessionCount()
	dto.TotalDuration = period.TotalDuration().String()
	dto.AvgSpeedMbps = period.AvgSpeedMbps()
	dto.PeakSpeedMbps = period.PeakSpeedMbps()
	dto.UsagePercent = period.UsagePercent(p.DataLimitBytes())
	dto.AlertedThresholds = period.AlertedThresholds()
	dto.Daily = period.DailyBuckets()

	return dto, nil
}
