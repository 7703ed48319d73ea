package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"bandwave/internal/domain/plan"
	"bandwave/internal/infrastructure/persistence/mappers"
	"bandwave/internal/infrastructure/persistence/models"
	"bandwave/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) plan.Repository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, entity *plan.Plan) error {
	model, err := r.mapper.ToModel(entity)
	if err != nil {
		r.logger.Errorw("failed to map plan entity to model", "error", err)
		return fmt.Errorf("failed to map plan entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan in database", "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if err := entity.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set plan ID: %w", err)
	}

	r.logger.Infow("plan created successfully", "id", model.ID, "slug", model.Slug)
	return nil
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*plan.Plan, error) {
	var model models.PlanModel

	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) GetBySID(ctx context.Context, sid string) (*plan.Plan, error) {
	var model models.PlanModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*plan.Plan, error) {
	var model models.PlanModel

	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by slug", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) ListPublic(ctx context.Context) ([]*plan.Plan, error) {
	var planModels []*models.PlanModel

	err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Where("status = ?", string(plan.PlanStatusActive)).
		Order("sort_order ASC, monthly_price ASC").
		Find(&planModels).Error
	if err != nil {
		r.logger.Errorw("failed to list public plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return r.mapper.ToEntities(planModels)
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, entity *plan.Plan) error {
	model, err := r.mapper.ToModel(entity)
	if err != nil {
		r.logger.Errorw("failed to map plan entity to model", "id", entity.ID(), "error", err)
		return fmt.Errorf("failed to map plan entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Model(&models.PlanModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":             model.Name,
			"slug":             model.Slug,
			"description":      model.Description,
			"monthly_price":    model.MonthlyPrice,
			"yearly_price":     model.YearlyPrice,
			"currency":         model.Currency,
			"data_limit_bytes": model.DataLimitBytes,
			"speed_mbps":       model.SpeedMbps,
			"status":           model.Status,
			"is_public":        model.IsPublic,
			"sort_order":       model.SortOrder,
			"updated_at":       model.UpdatedAt,
		}).Error; err != nil {
		r.logger.Errorw("failed to update plan", "id", model.ID, "error", err)
		return fmt.Errorf("failed to update plan: %w", err)
	}

	r.logger.Infow("plan updated successfully", "id", model.ID)
	return nil
}
