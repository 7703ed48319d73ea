package plan

import "errors"

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrPlanInactive = errors.New("plan inactive")
	ErrInvalidPrice = errors.New("invalid plan price")
	ErrSlugExists   = errors.New("plan slug already exists")
)
