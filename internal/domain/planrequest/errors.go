package planrequest

import "errors"

var (
	ErrRequestNotFound         = errors.New("plan change request not found")
	ErrDuplicatePendingRequest = errors.New("customer already has a pending request")
	ErrInvalidRequestState     = errors.New("request is not in a state that allows this operation")
	ErrNotRequestOwner         = errors.New("request belongs to another customer")
	ErrInvalidRequestType      = errors.New("invalid request type")
	ErrInvalidUrgency          = errors.New("invalid urgency")
)
