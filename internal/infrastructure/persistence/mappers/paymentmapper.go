package mappers

import (
	"fmt"

	"bandwave/internal/domain/subscription"
	"bandwave/internal/infrastructure/persistence/models"
)

type PaymentMapper interface {
	ToEntity(model *models.PaymentModel) (*subscription.PaymentRecord, error)
	ToModel(record *subscription.PaymentRecord) (*models.PaymentModel, error)
	ToEntities(models []*models.PaymentModel) ([]*subscription.PaymentRecord, error)
}

type PaymentMapperImpl struct{}

func NewPaymentMapper() PaymentMapper {
	return &PaymentMapperImpl{}
}

func (m *PaymentMapperImpl) ToEntity(model *models.PaymentModel) (*subscription.PaymentRecord, error) {
	if model == nil {
		return nil, nil
	}

	record, err := subscription.ReconstructPaymentRecord(model.ID, model.SubscriptionID,
		model.Amount, model.Method, model.TransactionRef,
		subscription.PaymentStatus(model.Status), model.PaidAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct payment record: %w", err)
	}
	return record, nil
}

func (m *PaymentMapperImpl) ToModel(record *subscription.PaymentRecord) (*models.PaymentModel, error) {
	if record == nil {
		return nil, nil
	}

	return &models.PaymentModel{
		ID:             record.ID(),
		SubscriptionID: record.SubscriptionID(),
		PaidAt:         record.PaidAt(),
		Amount:         record.Amount(),
		Method:         record.Method(),
		TransactionRef: record.TransactionRef(),
		Status:         string(record.Status()),
	}, nil
}

func (m *PaymentMapperImpl) ToEntities(paymentModels []*models.PaymentModel) ([]*subscription.PaymentRecord, error) {
	records := make([]*subscription.PaymentRecord, 0, len(paymentModels))
	for _, model := range paymentModels {
		record, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
