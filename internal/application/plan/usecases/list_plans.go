package usecases

import (
	"context"

	"bandwave/internal/domain/plan"
	apperrors "bandwave/internal/shared/errors"
)

// ListPlansUseCase returns the public catalog, ordered for display.
type ListPlansUseCase struct {
	planRepo plan.Repository
}

func NewListPlansUseCase(planRepo plan.Repository) *ListPlansUseCase {
	return &ListPlansUseCase{planRepo: planRepo}
}

func (uc *ListPlansUseCase) Execute(ctx context.Context) ([]*PlanDTO, error) {
	plans, err := uc.planRepo.ListPublic(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list plans").WithCause(err)
	}

	out := make([]*PlanDTO, 0, len(plans))
	for _, p := range plans {
		out = append(out, ToPlanDTO(p))
	}
	return out, nil
}

// ExecuteGet returns a single plan by ID.
func (uc *ListPlansUseCase) ExecuteGet(ctx context.Context, planID uint) (*PlanDTO, error) {
	p, err := uc.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get plan").WithCause(err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("plan not found").WithCause(plan.ErrPlanNotFound)
	}
	return ToPlanDTO(p), nil
}
