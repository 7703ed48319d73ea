package valueobjects

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingSnapshot captures the price breakdown of a subscription at
// activation or modification time. It is never recomputed retroactively:
// reads return the stored values verbatim.
type PricingSnapshot struct {
	basePrice    decimal.Decimal
	discount     decimal.Decimal
	taxAmount    decimal.Decimal
	total        decimal.Decimal
	currency     string
	discountCode string
}

func NewPricingSnapshot(basePrice, discount, taxAmount, total decimal.Decimal, currency, discountCode string) (PricingSnapshot, error) {
	if currency == "" {
		return PricingSnapshot{}, fmt.Errorf("currency is required")
	}
	if basePrice.IsNegative() || discount.IsNegative() || taxAmount.IsNegative() || total.IsNegative() {
		return PricingSnapshot{}, fmt.Errorf("pricing amounts cannot be negative")
	}
	return PricingSnapshot{
		basePrice:    basePrice,
		discount:     discount,
		taxAmount:    taxAmount,
		total:        total,
		currency:     currency,
		discountCode: discountCode,
	}, nil
}

func (p PricingSnapshot) BasePrice() decimal.Decimal {
	return p.basePrice
}

func (p PricingSnapshot) Discount() decimal.Decimal {
	return p.discount
}

func (p PricingSnapshot) TaxAmount() decimal.Decimal {
	return p.taxAmount
}

func (p PricingSnapshot) Total() decimal.Decimal {
	return p.total
}

func (p PricingSnapshot) Currency() string {
	return p.currency
}

func (p PricingSnapshot) DiscountCode() string {
	return p.discountCode
}

func (p PricingSnapshot) IsZero() bool {
	return p.currency == "" && p.total.IsZero()
}
