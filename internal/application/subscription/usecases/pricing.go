package usecases

import (
	"bandwave/internal/domain/billing"
	vo "bandwave/internal/domain/subscription/valueobjects"
)

// snapshotFromQuote freezes a computed quote into the snapshot stored on the
// subscription. Pricing is captured at write time only; later plan price
// edits never rewrite an existing snapshot.
func snapshotFromQuote(q billing.Quote) (vo.PricingSnapshot, error) {
	return vo.NewPricingSnapshot(q.BasePrice, q.Discount, q.TaxAmount, q.Total, q.Currency, q.DiscountCode)
}
