package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bandwave/internal/domain/usage"
	"bandwave/internal/infrastructure/persistence/mappers"
	"bandwave/internal/infrastructure/persistence/models"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

type UsagePeriodRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.UsagePeriodMapper
	logger logger.Interface
}

func NewUsagePeriodRepository(db *gorm.DB, logger logger.Interface) usage.Repository {
	return &UsagePeriodRepositoryImpl{
		db:     db,
		mapper: mappers.NewUsagePeriodMapper(),
		logger: logger,
	}
}

func (r *UsagePeriodRepositoryImpl) Create(ctx context.Context, record *usage.PeriodRecord) error {
	model, err := r.mapper.ToModel(record)
	if err != nil {
		r.logger.Errorw("failed to map usage period to model", "error", err)
		return fmt.Errorf("failed to map usage period: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		// A concurrent first ingest won the insert for this period; surface
		// it as a retryable conflict so the caller reloads the winning row.
		if apperrors.IsDuplicateError(err) {
			r.logger.Warnw("usage period already exists, insert lost the race",
				"subscription_id", model.SubscriptionID, "period_start", model.PeriodStart)
			return apperrors.NewConcurrentModificationError(
				"usage period was created concurrently",
				fmt.Sprintf("subscription_id=%d", model.SubscriptionID))
		}
		r.logger.Errorw("failed to create usage period in database", "error", err)
		return fmt.Errorf("failed to create usage period: %w", err)
	}

	if err := record.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set usage period ID: %w", err)
	}

	r.logger.Debugw("usage period created",
		"id", model.ID, "subscription_id", model.SubscriptionID)
	return nil
}

func (r *UsagePeriodRepositoryImpl) GetByID(ctx context.Context, id uint) (*usage.PeriodRecord, error) {
	var model models.UsagePeriodModel

	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get usage period by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get usage period: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *UsagePeriodRepositoryImpl) GetBySubscriptionAndTime(ctx context.Context, subscriptionID uint, at time.Time) (*usage.PeriodRecord, error) {
	var model models.UsagePeriodModel

	// Latest period wins if legacy rows overlap the timestamp.
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Where("period_start <= ? AND period_end > ?", at, at).
		Order("period_start DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get usage period",
			"subscription_id", subscriptionID, "at", at, "error", err)
		return nil, fmt.Errorf("failed to get usage period: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *UsagePeriodRepositoryImpl) ListBySubscription(ctx context.Context, subscriptionID uint) ([]*usage.PeriodRecord, error) {
	var periodModels []*models.UsagePeriodModel

	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("period_start DESC").
		Find(&periodModels).Error
	if err != nil {
		r.logger.Errorw("failed to list usage periods",
			"subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list usage periods: %w", err)
	}

	return r.mapper.ToEntities(periodModels)
}

func (r *UsagePeriodRepositoryImpl) Update(ctx context.Context, record *usage.PeriodRecord) error {
	model, err := r.mapper.ToModel(record)
	if err != nil {
		r.logger.Errorw("failed to map usage period to model", "id", record.ID(), "error", err)
		return fmt.Errorf("failed to map usage period: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.UsagePeriodModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"total_bytes_up":      model.TotalBytesUp,
			"total_bytes_down":    model.TotalBytesDown,
			"session_count":       model.SessionCount,
			"total_duration_secs": model.TotalDurationSecs,
			"avg_speed_mbps":      model.AvgSpeedMbps,
			"peak_speed_mbps":     model.PeakSpeedMbps,
			"speed_samples":       model.SpeedSamples,
			"daily":               model.Daily,
			"alerted_thresholds":  model.AlertedThresholds,
			"version":             model.Version + 1,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update usage period", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update usage period: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		r.logger.Debugw("optimistic lock conflict on usage period update",
			"id", model.ID, "version", model.Version)
		return apperrors.NewConcurrentModificationError(
			"usage period was modified concurrently",
			fmt.Sprintf("id=%d version=%d", model.ID, model.Version))
	}

	record.CommitVersion()
	return nil
}
