package usage

import (
	"context"
	"time"
)

// Repository defines the persistence contract for usage periods. Update is
// version-guarded: a stale version fails with a concurrent-modification
// error and writes nothing, so the caller can reload and retry.
type Repository interface {
	Create(ctx context.Context, record *PeriodRecord) error
	GetByID(ctx context.Context, id uint) (*PeriodRecord, error)

	// GetBySubscriptionAndTime returns the period containing the given
	// instant for the subscription, or nil when none exists.
	GetBySubscriptionAndTime(ctx context.Context, subscriptionID uint, at time.Time) (*PeriodRecord, error)

	ListBySubscription(ctx context.Context, subscriptionID uint) ([]*PeriodRecord, error)

	Update(ctx context.Context, record *PeriodRecord) error
}
