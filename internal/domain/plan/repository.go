package plan

import "context"

// Repository defines persistence operations for plans.
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id uint) (*Plan, error)
	GetBySID(ctx context.Context, sid string) (*Plan, error)
	GetBySlug(ctx context.Context, slug string) (*Plan, error)
	ListPublic(ctx context.Context) ([]*Plan, error)
	Update(ctx context.Context, plan *Plan) error
}
