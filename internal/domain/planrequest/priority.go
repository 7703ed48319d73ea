package planrequest

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var ValidUrgencies = map[Urgency]bool{
	UrgencyLow:    true,
	UrgencyMedium: true,
	UrgencyHigh:   true,
}

func (u Urgency) String() string { return string(u) }

// priorityTable maps (request type, urgency) to the queue priority computed
// at submission. Higher values surface earlier in the admin queue.
// Revenue-positive upgrades outrank like-for-like changes, and cancellations
// outrank everything so churn risk gets reviewed first.
var priorityTable = map[RequestType]map[Urgency]int{
	TypeNewSubscription:    {UrgencyLow: 2, UrgencyMedium: 4, UrgencyHigh: 6},
	TypePlanChange:         {UrgencyLow: 2, UrgencyMedium: 4, UrgencyHigh: 6},
	TypePlanUpgrade:        {UrgencyLow: 3, UrgencyMedium: 5, UrgencyHigh: 8},
	TypePlanDowngrade:      {UrgencyLow: 2, UrgencyMedium: 3, UrgencyHigh: 5},
	TypeCancelSubscription: {UrgencyLow: 4, UrgencyMedium: 6, UrgencyHigh: 9},
}

// PriorityFor computes the queue priority for a request. Unknown
// combinations fall back to the lowest priority.
func PriorityFor(requestType RequestType, urgency Urgency) int {
	if byUrgency, ok := priorityTable[requestType]; ok {
		if p, ok := byUrgency[urgency]; ok {
			return p
		}
	}
	return 1
}
