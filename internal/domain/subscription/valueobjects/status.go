package valueobjects

type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusActive    SubscriptionStatus = "active"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// CanUseService reports whether the subscription currently entitles service.
func (s SubscriptionStatus) CanUseService() bool {
	return s == StatusActive
}

// IsTerminal reports whether no further state mutation is allowed. Terminal
// subscriptions still accept history appends for audit.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCancelled
}

// CountsTowardSingleActive reports whether the status participates in the
// at-most-one-active-or-pending-per-customer invariant.
func (s SubscriptionStatus) CountsTowardSingleActive() bool {
	return s == StatusPending || s == StatusActive
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusPending:   {StatusActive, StatusExpired},
		StatusActive:    {StatusSuspended, StatusCancelled, StatusExpired},
		StatusSuspended: {StatusActive, StatusCancelled},
		StatusCancelled: {},
		StatusExpired:   {StatusActive},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusPending:   true,
	StatusActive:    true,
	StatusSuspended: true,
	StatusCancelled: true,
	StatusExpired:   true,
}
