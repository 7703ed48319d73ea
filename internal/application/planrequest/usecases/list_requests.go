package usecases

import (
	"context"

	"bandwave/internal/domain/planrequest"
	"bandwave/internal/shared/actor"
	apperrors "bandwave/internal/shared/errors"
)

// ListQueueQuery pages the admin review queue, ordered by priority
// descending then submission time ascending.
type ListQueueQuery struct {
	Actor  actor.Actor
	Limit  int
	Offset int
}

// ListCustomerRequestsQuery returns a customer's own requests.
type ListCustomerRequestsQuery struct {
	Actor      actor.Actor
	CustomerID uint
}

type ListRequestsUseCase struct {
	requestRepo planrequest.Repository
}

func NewListRequestsUseCase(requestRepo planrequest.Repository) *ListRequestsUseCase {
	return &ListRequestsUseCase{requestRepo: requestRepo}
}

func (uc *ListRequestsUseCase) ExecuteQueue(ctx context.Context, q ListQueueQuery) (*QueueDTO, error) {
	if !q.Actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("the review queue is admin-only")
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	requests, total, err := uc.requestRepo.ListQueue(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list queue").WithCause(err)
	}

	dto := &QueueDTO{Total: total, Limit: limit, Offset: offset}
	for _, req := range requests {
		dto.Requests = append(dto.Requests, ToRequestDTO(req, true))
	}
	return dto, nil
}

func (uc *ListRequestsUseCase) ExecuteByCustomer(ctx context.Context, q ListCustomerRequestsQuery) ([]*RequestDTO, error) {
	if !q.Actor.Owns(q.CustomerID) {
		return nil, apperrors.NewForbiddenError("cannot view another customer's requests")
	}

	requests, err := uc.requestRepo.ListByCustomer(ctx, q.CustomerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list requests").WithCause(err)
	}

	out := make([]*RequestDTO, 0, len(requests))
	for _, req := range requests {
		out = append(out, ToRequestDTO(req, q.Actor.IsAdmin()))
	}
	return out, nil
}
