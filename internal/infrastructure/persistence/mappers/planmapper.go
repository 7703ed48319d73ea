package mappers

import (
	"fmt"

	"bandwave/internal/domain/plan"
	"bandwave/internal/infrastructure/persistence/models"
)

type PlanMapper interface {
	ToEntity(model *models.PlanModel) (*plan.Plan, error)
	ToModel(entity *plan.Plan) (*models.PlanModel, error)
	ToEntities(models []*models.PlanModel) ([]*plan.Plan, error)
}

type PlanMapperImpl struct{}

func NewPlanMapper() PlanMapper {
	return &PlanMapperImpl{}
}

func (m *PlanMapperImpl) ToEntity(model *models.PlanModel) (*plan.Plan, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := plan.Reconstruct(plan.ReconstructParams{
		ID:             model.ID,
		SID:            model.SID,
		Name:           model.Name,
		Slug:           model.Slug,
		Description:    model.Description,
		MonthlyPrice:   model.MonthlyPrice,
		YearlyPrice:    model.YearlyPrice,
		Currency:       model.Currency,
		DataLimitBytes: model.DataLimitBytes,
		SpeedMbps:      model.SpeedMbps,
		Status:         model.Status,
		IsPublic:       model.IsPublic,
		SortOrder:      model.SortOrder,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan entity: %w", err)
	}
	return entity, nil
}

func (m *PlanMapperImpl) ToModel(entity *plan.Plan) (*models.PlanModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.PlanModel{
		ID:             entity.ID(),
		SID:            entity.SID(),
		Name:           entity.Name(),
		Slug:           entity.Slug(),
		Description:    entity.Description(),
		MonthlyPrice:   entity.MonthlyPrice(),
		YearlyPrice:    entity.YearlyPrice(),
		Currency:       entity.Currency(),
		DataLimitBytes: entity.DataLimitBytes(),
		SpeedMbps:      entity.SpeedMbps(),
		Status:         string(entity.Status()),
		IsPublic:       entity.IsPublic(),
		SortOrder:      entity.SortOrder(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}, nil
}

func (m *PlanMapperImpl) ToEntities(planModels []*models.PlanModel) ([]*plan.Plan, error) {
	entities := make([]*plan.Plan, 0, len(planModels))
	for _, model := range planModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
