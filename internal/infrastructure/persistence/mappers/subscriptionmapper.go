package mappers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/infrastructure/persistence/models"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.SubscriptionStatus(model.Status)
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	cycle, err := vo.ParseBillingCycle(model.BillingCycle)
	if err != nil {
		return nil, fmt.Errorf("failed to parse billing cycle: %w", err)
	}

	pricing, err := vo.NewPricingSnapshot(model.BasePrice, model.Discount, model.TaxAmount,
		model.Total, model.Currency, model.DiscountCode)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild pricing snapshot: %w", err)
	}

	var cancellation *subscription.CancellationRecord
	if model.CancelRequestedAt != nil && model.CancelEffectiveAt != nil {
		reason := ""
		if model.CancelReason != nil {
			reason = *model.CancelReason
		}
		refund := decimal.Zero
		if model.RefundAmount != nil {
			refund = *model.RefundAmount
		}
		record := subscription.NewCancellationRecord(*model.CancelRequestedAt, *model.CancelEffectiveAt,
			reason, model.RefundEligible, refund)
		cancellation = &record
	}

	entity, err := subscription.Reconstruct(subscription.ReconstructParams{
		ID:                 model.ID,
		SID:                model.SID,
		UUID:               model.UUID,
		CustomerID:         model.CustomerID,
		PlanID:             model.PlanID,
		BillingCycle:       cycle,
		Status:             status,
		StartDate:          model.StartDate,
		EndDate:            model.EndDate,
		Pricing:            pricing,
		OutstandingBalance: model.OutstandingBalance,
		ScheduledPlanID:    model.ScheduledPlanID,
		ScheduledEffective: model.ScheduledEffective,
		Cancellation:       cancellation,
		Version:            model.Version,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}
	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	pricing := entity.Pricing()
	model := &models.SubscriptionModel{
		ID:                 entity.ID(),
		SID:                entity.SID(),
		UUID:               entity.UUID(),
		CustomerID:         entity.CustomerID(),
		PlanID:             entity.PlanID(),
		BillingCycle:       entity.BillingCycle().String(),
		Status:             entity.Status().String(),
		StartDate:          entity.StartDate(),
		EndDate:            entity.EndDate(),
		BasePrice:          pricing.BasePrice(),
		Discount:           pricing.Discount(),
		TaxAmount:          pricing.TaxAmount(),
		Total:              pricing.Total(),
		Currency:           pricing.Currency(),
		DiscountCode:       pricing.DiscountCode(),
		OutstandingBalance: entity.OutstandingBalance(),
		ScheduledPlanID:    entity.ScheduledPlanID(),
		ScheduledEffective: entity.ScheduledEffective(),
		Version:            entity.Version(),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}

	if c := entity.Cancellation(); c != nil {
		requestedAt := c.RequestedAt()
		effectiveAt := c.EffectiveAt()
		reason := c.Reason()
		refund := c.RefundAmount()
		model.CancelRequestedAt = &requestedAt
		model.CancelEffectiveAt = &effectiveAt
		model.CancelReason = &reason
		model.RefundEligible = c.RefundEligible()
		model.RefundAmount = &refund
	}

	return model, nil
}

func (m *SubscriptionMapperImpl) ToEntities(subscriptionModels []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	entities := make([]*subscription.Subscription, 0, len(subscriptionModels))
	for _, model := range subscriptionModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
