package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound        = errors.New("subscription not found")
	ErrInvalidStatusTransition     = errors.New("invalid status transition")
	ErrAlreadyCancelled            = errors.New("subscription already cancelled")
	ErrInvalidUpgrade              = errors.New("upgrade requires a plan with a strictly higher price")
	ErrInvalidDowngrade            = errors.New("downgrade requires a plan with a strictly lower price")
	ErrDuplicateActiveSubscription = errors.New("customer already has an active or pending subscription")
	ErrNoScheduledChange           = errors.New("no scheduled plan change to apply")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
