package valueobjects

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidBillingCycle is returned when billing cycle is not valid
	ErrInvalidBillingCycle = errors.New("invalid billing cycle")
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

var ValidBillingCycles = map[BillingCycle]bool{
	BillingCycleMonthly: true,
	BillingCycleYearly:  true,
}

func ParseBillingCycle(value string) (BillingCycle, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	cycle := BillingCycle(normalized)

	if normalized == "" {
		return "", fmt.Errorf("billing cycle cannot be empty")
	}

	if !ValidBillingCycles[cycle] {
		return "", fmt.Errorf("%w: %s", ErrInvalidBillingCycle, value)
	}

	return cycle, nil
}

func (b BillingCycle) String() string {
	return string(b)
}

func (b BillingCycle) IsValid() bool {
	return ValidBillingCycles[b]
}

// Days returns the nominal cycle length used for proration math. A year is
// counted as 365 days; leap-year drift is absorbed by NextBillingDate.
func (b BillingCycle) Days() int {
	switch b {
	case BillingCycleMonthly:
		return 30
	case BillingCycleYearly:
		return 365
	default:
		return 0
	}
}

// NextBillingDate extends a cycle boundary by exactly one billing-cycle unit:
// 30 days for monthly, one calendar year for yearly. Calendar-month
// arithmetic is deliberately avoided so variable month lengths cannot drift
// the renewal anchor.
func (b BillingCycle) NextBillingDate(from time.Time) time.Time {
	switch b {
	case BillingCycleMonthly:
		return from.AddDate(0, 0, 30)
	case BillingCycleYearly:
		return from.AddDate(1, 0, 0)
	default:
		return time.Time{}
	}
}

// PreviousBillingDate walks a cycle boundary back by one billing-cycle unit.
// It is the inverse of NextBillingDate and anchors the start of the cycle
// that ends at the given boundary.
func (b BillingCycle) PreviousBillingDate(boundary time.Time) time.Time {
	switch b {
	case BillingCycleMonthly:
		return boundary.AddDate(0, 0, -30)
	case BillingCycleYearly:
		return boundary.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

func (b BillingCycle) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *BillingCycle) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	cycle, err := ParseBillingCycle(str)
	if err != nil {
		return err
	}

	*b = cycle
	return nil
}
