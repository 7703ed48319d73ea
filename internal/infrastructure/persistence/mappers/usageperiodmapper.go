package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"bandwave/internal/domain/usage"
	"bandwave/internal/infrastructure/persistence/models"
)

type UsagePeriodMapper interface {
	ToEntity(model *models.UsagePeriodModel) (*usage.PeriodRecord, error)
	ToModel(record *usage.PeriodRecord) (*models.UsagePeriodModel, error)
	ToEntities(models []*models.UsagePeriodModel) ([]*usage.PeriodRecord, error)
}

type UsagePeriodMapperImpl struct{}

func NewUsagePeriodMapper() UsagePeriodMapper {
	return &UsagePeriodMapperImpl{}
}

func (m *UsagePeriodMapperImpl) ToEntity(model *models.UsagePeriodModel) (*usage.PeriodRecord, error) {
	if model == nil {
		return nil, nil
	}

	var daily []usage.DailyBucket
	if len(model.Daily) > 0 {
		if err := json.Unmarshal(model.Daily, &daily); err != nil {
			return nil, fmt.Errorf("failed to unmarshal daily buckets: %w", err)
		}
	}

	var alerted []int
	if len(model.AlertedThresholds) > 0 {
		if err := json.Unmarshal(model.AlertedThresholds, &alerted); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alerted thresholds: %w", err)
		}
	}

	record, err := usage.Reconstruct(usage.ReconstructParams{
		ID:                model.ID,
		SID:               model.SID,
		SubscriptionID:    model.SubscriptionID,
		PeriodStart:       model.PeriodStart,
		PeriodEnd:         model.PeriodEnd,
		TotalBytesUp:      model.TotalBytesUp,
		TotalBytesDown:    model.TotalBytesDown,
		SessionCount:      model.SessionCount,
		TotalDuration:     time.Duration(model.TotalDurationSecs) * time.Second,
		AvgSpeedMbps:      model.AvgSpeedMbps,
		PeakSpeedMbps:     model.PeakSpeedMbps,
		SpeedSamples:      model.SpeedSamples,
		Daily:             daily,
		AlertedThresholds: alerted,
		Version:           model.Version,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct usage period: %w", err)
	}
	return record, nil
}

func (m *UsagePeriodMapperImpl) ToModel(record *usage.PeriodRecord) (*models.UsagePeriodModel, error) {
	if record == nil {
		return nil, nil
	}

	daily, err := json.Marshal(record.DailyBuckets())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal daily buckets: %w", err)
	}
	alerted, err := json.Marshal(record.AlertedThresholds())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alerted thresholds: %w", err)
	}

	return &models.UsagePeriodModel{
		ID:                record.ID(),
		SID:               record.SID(),
		SubscriptionID:    record.SubscriptionID(),
		PeriodStart:       record.PeriodStart(),
		PeriodEnd:         record.PeriodEnd(),
		TotalBytesUp:      record.TotalBytesUp(),
		TotalBytesDown:    record.TotalBytesDown(),
		SessionCount:      record.SessionCount(),
		TotalDurationSecs: int64(record.TotalDuration() / time.Second),
		AvgSpeedMbps:      record.AvgSpeedMbps(),
		PeakSpeedMbps:     record.PeakSpeedMbps(),
		SpeedSamples:      record.SpeedSamples(),
		Daily:             daily,
		AlertedThresholds: alerted,
		Version:           record.Version(),
		CreatedAt:         record.CreatedAt(),
		UpdatedAt:         record.UpdatedAt(),
	}, nil
}

func (m *UsagePeriodMapperImpl) ToEntities(periodModels []*models.UsagePeriodModel) ([]*usage.PeriodRecord, error) {
	records := make([]*usage.PeriodRecord, 0, len(periodModels))
	for _, model := range periodModels {
		record, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
