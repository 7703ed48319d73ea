package usecases

import (
	"context"
	"errors"

	"bandwave/internal/domain/planrequest"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// CancelRequestCommand lets the submitting customer withdraw a still-pending
// request.
type CancelRequestCommand struct {
	Actor     actor.Actor
	RequestID uint
}

type CancelRequestUseCase struct {
	requestRepo planrequest.Repository
	publisher   events.Publisher
	logger      logger.Interface
}

func NewCancelRequestUseCase(
	requestRepo planrequest.Repository,
	publisher events.Publisher,
	logger logger.Interface,
) *CancelRequestUseCase {
	return &CancelRequestUseCase{
		requestRepo: requestRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

func (uc *CancelRequestUseCase) Execute(ctx context.Context, cmd CancelRequestCommand) (*RequestDTO, error) {
	req, err := uc.requestRepo.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load request").WithCause(err)
	}
	if req == nil {
		return nil, apperrors.NewNotFoundError("request not found")
	}

	customerID := cmd.Actor.ID
	if cmd.Actor.IsAdmin() {
		customerID = req.CustomerID()
	}

	if err := req.CancelByCustomer(customerID); err != nil {
		switch {
		case errors.Is(err, planrequest.ErrNotRequestOwner):
			return nil, apperrors.NewForbiddenError("cannot cancel another customer's request").WithCause(err)
		case errors.Is(err, planrequest.ErrInvalidRequestState):
			return nil, apperrors.NewInvalidStateError("request cannot be cancelled", err.Error()).WithCause(err)
		default:
			return nil, apperrors.NewInternalError("failed to cancel request").WithCause(err)
		}
	}

	if err := uc.requestRepo.Update(ctx, req); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist cancellation").WithCause(err)
	}

	uc.logger.Infow("plan change request cancelled by customer",
		"request_sid", req.SID(),
		"customer_id", req.CustomerID(),
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypePlanRequestCancelled, req.CustomerID(), map[string]any{
		"request_sid": req.SID(),
	}))

	return ToRequestDTO(req, cmd.Actor.IsAdmin()), nil
}
