package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"bandwave/internal/domain/planrequest"
	"bandwave/internal/infrastructure/persistence/mappers"
	"bandwave/internal/infrastructure/persistence/models"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

type PlanRequestRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlanRequestMapper
	logger logger.Interface
}

func NewPlanRequestRepository(db *gorm.DB, logger logger.Interface) planrequest.Repository {
	return &PlanRequestRepositoryImpl{
		db:     db,
		mapper: mappers.NewPlanRequestMapper(),
		logger: logger,
	}
}

// Create inserts the request after re-checking the one-pending-per-customer
// invariant inside a transaction, closing the race between two concurrent
// submissions.
func (r *PlanRequestRepositoryImpl) Create(ctx context.Context, req *planrequest.Request) error {
	model, err := r.mapper.ToModel(req)
	if err != nil {
		r.logger.Errorw("failed to map plan request entity to model", "error", err)
		return fmt.Errorf("failed to map plan request entity: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PlanRequestModel{}).
			Where("customer_id = ?", model.CustomerID).
			Where("status = ?", string(planrequest.StatusPending)).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check pending requests: %w", err)
		}
		if count > 0 {
			return apperrors.NewConflictError("customer already has a pending request").
				WithCause(planrequest.ErrDuplicatePendingRequest)
		}
		if err := tx.Create(model).Error; err != nil {
			// The unique key on the generated pending-customer column backs
			// the count check when two submissions race past it.
			if apperrors.IsDuplicateError(err) {
				return apperrors.NewConflictError("customer already has a pending request").
					WithCause(planrequest.ErrDuplicatePendingRequest)
			}
			return fmt.Errorf("failed to create plan request: %w", err)
		}
		return req.SetID(model.ID)
	})
	if err != nil {
		if apperrors.IsConflictError(err) {
			return err
		}
		r.logger.Errorw("failed to create plan request in database", "error", err)
		return err
	}

	r.logger.Infow("plan request created successfully",
		"id", model.ID, "customer_id", model.CustomerID, "request_type", model.RequestType)
	return nil
}

func (r *PlanRequestRepositoryImpl) GetByID(ctx context.Context, id uint) (*planrequest.Request, error) {
	var model models.PlanRequestModel

	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan request by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get plan request: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRequestRepositoryImpl) GetBySID(ctx context.Context, sid string) (*planrequest.Request, error) {
	var model models.PlanRequestModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan request by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get plan request: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRequestRepositoryImpl) GetPendingByCustomer(ctx context.Context, customerID uint) (*planrequest.Request, error) {
	var model models.PlanRequestModel

	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("status = ?", string(planrequest.StatusPending)).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get pending request", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf("failed to get plan request: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRequestRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint) ([]*planrequest.Request, error) {
	var requestModels []*models.PlanRequestModel

	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&requestModels).Error
	if err != nil {
		r.logger.Errorw("failed to list plan requests", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf("failed to list plan requests: %w", err)
	}

	return r.mapper.ToEntities(requestModels)
}

// ListQueue pages pending requests for the admin queue: highest priority
// first, oldest first within a priority.
func (r *PlanRequestRepositoryImpl) ListQueue(ctx context.Context, limit, offset int) ([]*planrequest.Request, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.PlanRequestModel{}).
		Where("status = ?", string(planrequest.StatusPending)).
		Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count review queue", "error", err)
		return nil, 0, fmt.Errorf("failed to count plan requests: %w", err)
	}

	var requestModels []*models.PlanRequestModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(planrequest.StatusPending)).
		Order("priority DESC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&requestModels).Error
	if err != nil {
		r.logger.Errorw("failed to list review queue", "error", err)
		return nil, 0, fmt.Errorf("failed to list plan requests: %w", err)
	}

	entities, err := r.mapper.ToEntities(requestModels)
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func (r *PlanRequestRepositoryImpl) Update(ctx context.Context, req *planrequest.Request) error {
	model, err := r.mapper.ToModel(req)
	if err != nil {
		r.logger.Errorw("failed to map plan request entity to model", "id", req.ID(), "error", err)
		return fmt.Errorf("failed to map plan request entity: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.PlanRequestModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"admin_action": model.AdminAction,
			"audit_trail":  model.AuditTrail,
			"version":      model.Version + 1,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan request", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update plan request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		r.logger.Warnw("optimistic lock conflict on plan request update",
			"id", model.ID, "version", model.Version)
		return apperrors.NewConcurrentModificationError(
			"plan request was modified concurrently",
			fmt.Sprintf("id=%d version=%d", model.ID, model.Version))
	}

	req.CommitVersion()
	r.logger.Infow("plan request updated successfully", "id", model.ID, "status", model.Status)
	return nil
}
