package usecases

import (
	"context"

	"bandwave/internal/domain/planrequest"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
	"bandwave/internal/shared/logger"
)

// RejectRequestCommand closes a pending request without touching the
// subscription. Comments are required so the customer learns why.
type RejectRequestCommand struct {
	Actor         actor.Actor
	RequestID     uint
	Comments      string
	InternalNotes string
}

type RejectRequestUseCase struct {
	requestRepo planrequest.Repository
	publisher   events.Publisher
	logger      logger.Interface
}

func NewRejectRequestUseCase(
	requestRepo planrequest.Repository,
	publisher events.Publisher,
	logger logger.Interface,
) *RejectRequestUseCase {
	return &RejectRequestUseCase{
		requestRepo: requestRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

func (uc *RejectRequestUseCase) Execute(ctx context.Context, cmd RejectRequestCommand) (*RequestDTO, error) {
	if !cmd.Actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can reject requests")
	}
	if cmd.Comments == "" {
		return nil, apperrors.NewValidationError("rejection comments are required")
	}

	req, err := uc.requestRepo.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load request").WithCause(err)
	}
	if req == nil {
		return nil, apperrors.NewNotFoundError("request not found")
	}

	if err := req.Reject(cmd.Actor.ID, cmd.Comments, cmd.InternalNotes); err != nil {
		return nil, apperrors.NewInvalidStateError("request cannot be rejected", err.Error()).WithCause(err)
	}

	if err := uc.requestRepo.Update(ctx, req); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to persist rejection").WithCause(err)
	}

	uc.logger.Infow("plan change request rejected",
		"request_sid", req.SID(),
		"customer_id", req.CustomerID(),
		"reviewer_id", cmd.Actor.ID,
	)

	uc.publisher.Publish(ctx, events.NewEvent(events.TypePlanRequestRejected, req.CustomerID(), map[string]any{
		"request_sid": req.SID(),
		"comments":    cmd.Comments,
	}))

	return ToRequestDTO(req, true), nil
}
