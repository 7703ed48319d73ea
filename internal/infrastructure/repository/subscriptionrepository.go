package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/infrastructure/persistence/mappers"
	"bandwave/internal/infrastructure/persistence/models"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

type SubscriptionRepositoryImpl struct {
	db            *gorm.DB
	mapper        mappers.SubscriptionMapper
	historyMapper mappers.SubscriptionHistoryMapper
	paymentMapper mappers.PaymentMapper
	logger        logger.Interface
}

func NewSubscriptionRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscription.Repository {
	return &SubscriptionRepositoryImpl{
		db:            db,
		mapper:        mappers.NewSubscriptionMapper(),
		historyMapper: mappers.NewSubscriptionHistoryMapper(),
		paymentMapper: mappers.NewPaymentMapper(),
		logger:        logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			// The unique key on the generated current-customer column closes
			// the race two concurrent first-time creates would otherwise win
			// together.
			if apperrors.IsDuplicateError(err) {
				return apperrors.NewConflictError("customer already has an active or pending subscription").
					WithCause(subscription.ErrDuplicateActiveSubscription)
			}
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		if err := sub.SetID(model.ID); err != nil {
			return fmt.Errorf("failed to set subscription ID: %w", err)
		}
		return r.appendPending(tx, sub)
	})
	if err != nil {
		if apperrors.IsConflictError(err) {
			r.logger.Warnw("duplicate active subscription rejected",
				"customer_id", model.CustomerID)
			return err
		}
		r.logger.Errorw("failed to create subscription in database", "error", err)
		return err
	}

	sub.ClearPending()
	r.logger.Infow("subscription created successfully",
		"id", model.ID, "customer_id", model.CustomerID, "plan_id", model.PlanID)
	return nil
}

// Update commits aggregate state together with any pending history and
// payment rows in one transaction. The write is guarded by the loaded
// version: a concurrent commit wins the race and this one fails without
// writing anything.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "id", sub.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SubscriptionModel{}).
			Where("id = ? AND version = ?", model.ID, model.Version).
			Updates(map[string]interface{}{
				"customer_id":         model.CustomerID,
				"plan_id":             model.PlanID,
				"billing_cycle":       model.BillingCycle,
				"status":              model.Status,
				"start_date":          model.StartDate,
				"end_date":            model.EndDate,
				"base_price":          model.BasePrice,
				"discount":            model.Discount,
				"tax_amount":          model.TaxAmount,
				"total":               model.Total,
				"currency":            model.Currency,
				"discount_code":       model.DiscountCode,
				"outstanding_balance": model.OutstandingBalance,
				"scheduled_plan_id":   model.ScheduledPlanID,
				"scheduled_effective": model.ScheduledEffective,
				"cancel_requested_at": model.CancelRequestedAt,
				"cancel_effective_at": model.CancelEffectiveAt,
				"cancel_reason":       model.CancelReason,
				"refund_eligible":     model.RefundEligible,
				"refund_amount":       model.RefundAmount,
				"version":             model.Version + 1,
				"updated_at":          model.UpdatedAt,
			})
		if result.Error != nil {
			// A status flip back to pending/active can collide with another
			// current subscription for the same customer.
			if apperrors.IsDuplicateError(result.Error) {
				return apperrors.NewConflictError("customer already has an active or pending subscription").
					WithCause(subscription.ErrDuplicateActiveSubscription)
			}
			return fmt.Errorf("failed to update subscription: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NewConcurrentModificationError(
				"subscription was modified concurrently",
				fmt.Sprintf("id=%d version=%d", model.ID, model.Version))
		}
		return r.appendPending(tx, sub)
	})
	if err != nil {
		if apperrors.IsConcurrentModificationError(err) {
			r.logger.Warnw("optimistic lock conflict on subscription update",
				"id", model.ID, "version", model.Version)
			return err
		}
		if apperrors.IsConflictError(err) {
			r.logger.Warnw("duplicate active subscription rejected on update",
				"id", model.ID, "customer_id", model.CustomerID)
			return err
		}
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", err)
		return err
	}

	sub.ClearPending()
	sub.CommitVersion()
	r.logger.Infow("subscription updated successfully", "id", model.ID, "status", model.Status)
	return nil
}

// appendPending inserts the history and payment rows buffered on the
// aggregate since load, inside the same transaction as the state write.
func (r *SubscriptionRepositoryImpl) appendPending(tx *gorm.DB, sub *subscription.Subscription) error {
	for _, entry := range sub.PendingHistory() {
		entry.BindTo(sub.ID())
		historyModel, err := r.historyMapper.ToModel(entry)
		if err != nil {
			return fmt.Errorf("failed to map history entry: %w", err)
		}
		if err := tx.Create(historyModel).Error; err != nil {
			return fmt.Errorf("failed to create history entry: %w", err)
		}
	}
	for _, record := range sub.PendingPayments() {
		record.BindTo(sub.ID())
		paymentModel, err := r.paymentMapper.ToModel(record)
		if err != nil {
			return fmt.Errorf("failed to map payment record: %w", err)
		}
		if err := tx.Create(paymentModel).Error; err != nil {
			return fmt.Errorf("failed to create payment record: %w", err)
		}
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetCurrentByCustomer(ctx context.Context, customerID uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("status IN ?", []string{string(vo.StatusPending), string(vo.StatusActive)}).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get current subscription", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&subscriptionModels).Error
	if err != nil {
		r.logger.Errorw("failed to list subscriptions", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return r.mapper.ToEntities(subscriptionModels)
}

func (r *SubscriptionRepositoryImpl) ListHistory(ctx context.Context, subscriptionID uint) ([]*subscription.HistoryEntry, error) {
	var historyModels []*models.SubscriptionHistoryModel

	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC, id ASC").
		Find(&historyModels).Error
	if err != nil {
		r.logger.Errorw("failed to list history", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	return r.historyMapper.ToEntities(historyModels)
}

func (r *SubscriptionRepositoryImpl) ListPayments(ctx context.Context, subscriptionID uint) ([]*subscription.PaymentRecord, error) {
	var paymentModels []*models.PaymentModel

	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("paid_at ASC, id ASC").
		Find(&paymentModels).Error
	if err != nil {
		r.logger.Errorw("failed to list payments", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return r.paymentMapper.ToEntities(paymentModels)
}

func (r *SubscriptionRepositoryImpl) FindPeriodEnded(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	err := r.db.WithContext(ctx).
		Where("status = ?", string(vo.StatusActive)).
		Where("end_date <= ?", asOf).
		Order("end_date ASC").
		Limit(limit).
		Find(&subscriptionModels).Error
	if err != nil {
		r.logger.Errorw("failed to find period-ended subscriptions", "error", err)
		return nil, fmt.Errorf("failed to find subscriptions: %w", err)
	}

	return r.mapper.ToEntities(subscriptionModels)
}

func (r *SubscriptionRepositoryImpl) FindScheduledChangesDue(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	err := r.db.WithContext(ctx).
		Where("status = ?", string(vo.StatusActive)).
		Where("scheduled_plan_id IS NOT NULL").
		Where("scheduled_effective <= ?", asOf).
		Order("scheduled_effective ASC").
		Limit(limit).
		Find(&subscriptionModels).Error
	if err != nil {
		r.logger.Errorw("failed to find due scheduled changes", "error", err)
		return nil, fmt.Errorf("failed to find subscriptions: %w", err)
	}

	return r.mapper.ToEntities(subscriptionModels)
}
