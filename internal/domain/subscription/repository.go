package subscription

import (
	"context"
	"time"
)

// Repository defines the persistence contract for subscriptions. Update
// commits aggregate state together with any pending history and payment
// records in one transaction, guarded by the optimistic-lock version: a
// stale version fails with a concurrent-modification error and writes
// nothing.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)

	// GetCurrentByCustomer returns the customer's active or pending
	// subscription, or nil when none exists. At most one can exist.
	GetCurrentByCustomer(ctx context.Context, customerID uint) (*Subscription, error)

	ListByCustomer(ctx context.Context, customerID uint) ([]*Subscription, error)

	Update(ctx context.Context, sub *Subscription) error

	ListHistory(ctx context.Context, subscriptionID uint) ([]*HistoryEntry, error)
	ListPayments(ctx context.Context, subscriptionID uint) ([]*PaymentRecord, error)

	// FindPeriodEnded returns active subscriptions whose cycle boundary has
	// passed, for the rollover job.
	FindPeriodEnded(ctx context.Context, asOf time.Time, limit int) ([]*Subscription, error)

	// FindScheduledChangesDue returns active subscriptions with a scheduled
	// plan change whose effective date has arrived.
	FindScheduledChangesDue(ctx context.Context, asOf time.Time, limit int) ([]*Subscription, error)
}
