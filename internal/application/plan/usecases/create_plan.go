package usecases

import (
	"context"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/plan"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// CreatePlanCommand adds a plan to the catalog. Admin-only.
type CreatePlanCommand struct {
	Actor          actor.Actor
	Name           string
	Slug           string
	Description    string
	MonthlyPrice   decimal.Decimal
	YearlyPrice    decimal.Decimal
	Currency       string
	DataLimitBytes uint64
	SpeedMbps      uint
}

type CreatePlanUseCase struct {
	planRepo plan.Repository
	logger   logger.Interface
}

func NewCreatePlanUseCase(planRepo plan.Repository, logger logger.Interface) *CreatePlanUseCase {
	return &CreatePlanUseCase{planRepo: planRepo, logger: logger}
}

func (uc *CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (*PlanDTO, error) {
	if !cmd.Actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can manage the plan catalog")
	}

	existing, err := uc.planRepo.GetBySlug(ctx, cmd.Slug)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check plan slug").WithCause(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("plan slug already exists").WithCause(plan.ErrSlugExists)
	}

	p, err := plan.NewPlan(cmd.Name, cmd.Slug, cmd.Description, cmd.MonthlyPrice, cmd.YearlyPrice,
		cmd.Currency, cmd.DataLimitBytes, cmd.SpeedMbps)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid plan", err.Error())
	}

	if err := uc.planRepo.Create(ctx, p); err != nil {
		return nil, apperrors.NewInternalError("failed to create plan").WithCause(err)
	}

	uc.logger.Infow("plan created", "plan_sid", p.SID(), "slug", p.Slug())

	return ToPlanDTO(p), nil
}
