package planrequest

import "context"

// Repository defines the persistence contract for plan change requests.
// Update is version-guarded: a stale version fails with a
// concurrent-modification error and writes nothing.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uint) (*Request, error)
	GetBySID(ctx context.Context, sid string) (*Request, error)

	// GetPendingByCustomer returns the customer's pending request, or nil
	// when none exists. At most one can exist.
	GetPendingByCustomer(ctx context.Context, customerID uint) (*Request, error)

	ListByCustomer(ctx context.Context, customerID uint) ([]*Request, error)

	// ListQueue returns pending requests ordered by priority descending,
	// then submission time ascending.
	ListQueue(ctx context.Context, limit, offset int) ([]*Request, int64, error)

	Update(ctx context.Context, req *Request) error
}
