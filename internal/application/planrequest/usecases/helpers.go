package usecases

import (
	"bandwave/internal/domain/billing"
	"bandwave/internal/domain/subscription"
	vo "bandwave/internal/domain/subscription/valueobjects"
)

// billingCycleFor picks the cycle to quote against: the subscription's own
// cycle, or monthly when the customer has none yet.
func billingCycleFor(sub *subscription.Subscription) vo.BillingCycle {
	if sub != nil {
		return sub.BillingCycle()
	}
	return vo.BillingCycleMonthly
}

func snapshotFromQuote(q billing.Quote) (vo.PricingSnapshot, error) {
	return vo.NewPricingSnapshot(q.BasePrice, q.Discount, q.TaxAmount, q.Total, q.Currency, q.DiscountCode)
}
