// Package billing is the single source of truth for pricing math. All
// functions are pure and deterministic; monetary values are fixed-point with
// two decimal places, rounded exactly once at the output.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/plan"
	vo "bandwave/internal/domain/subscription/valueobjects"
)

// discountPercent is the flat discount applied when any discount code is
// present. Codes do not stack.
var discountPercent = decimal.NewFromInt(10)

var oneHundred = decimal.NewFromInt(100)

// Quote is the price breakdown for one billing cycle.
type Quote struct {
	BasePrice    decimal.Decimal
	Discount     decimal.Decimal
	TaxAmount    decimal.Decimal
	Total        decimal.Decimal
	Currency     string
	DiscountCode string
}

// CyclePrice returns the plan's base price for the chosen billing cycle.
func CyclePrice(p *plan.Plan, cycle vo.BillingCycle) decimal.Decimal {
	return p.PriceFor(cycle)
}

// ApplyDiscount returns the discounted price and the discount amount. Policy:
// flat 10% whenever a discount code is present, no stacking.
func ApplyDiscount(base decimal.Decimal, discountCode string) (discounted, discount decimal.Decimal) {
	if discountCode == "" {
		return base, decimal.Zero
	}
	discount = base.Mul(discountPercent).Div(oneHundred)
	return base.Sub(discount), discount
}

// ApplyTax returns the tax amount and the tax-inclusive total for the given
// rate in percent. The rate may be zero under a no-tax policy.
func ApplyTax(price decimal.Decimal, taxRatePercent decimal.Decimal) (tax, total decimal.Decimal) {
	tax = price.Mul(taxRatePercent).Div(oneHundred)
	return tax, price.Add(tax)
}

// ProratedCredit computes amount * remainingDays / cycleLengthDays, rounded
// once to two decimals. Used only for the downgrade-credit path.
func ProratedCredit(amount decimal.Decimal, cycleLengthDays, remainingDays int) (decimal.Decimal, error) {
	if cycleLengthDays <= 0 {
		return decimal.Zero, fmt.Errorf("cycle length must be positive, got %d", cycleLengthDays)
	}
	if remainingDays < 0 {
		return decimal.Zero, fmt.Errorf("remaining days cannot be negative, got %d", remainingDays)
	}
	if remainingDays > cycleLengthDays {
		remainingDays = cycleLengthDays
	}
	credit := amount.
		Mul(decimal.NewFromInt(int64(remainingDays))).
		Div(decimal.NewFromInt(int64(cycleLengthDays)))
	return credit.Round(2), nil
}

// QuoteCycle composes the full breakdown for one billing cycle of a plan.
// Intermediate values stay unrounded; each output field is rounded once.
func QuoteCycle(p *plan.Plan, cycle vo.BillingCycle, discountCode string, taxRatePercent decimal.Decimal) Quote {
	base := CyclePrice(p, cycle)
	discounted, discount := ApplyDiscount(base, discountCode)
	tax, total := ApplyTax(discounted, taxRatePercent)

	return Quote{
		BasePrice:    base.Round(2),
		Discount:     discount.Round(2),
		TaxAmount:    tax.Round(2),
		Total:        total.Round(2),
		Currency:     p.Currency(),
		DiscountCode: discountCode,
	}
}

// PriceDifference returns newPrice - currentPrice rounded to two decimals.
// Positive values are revenue-positive changes.
func PriceDifference(currentPrice, newPrice decimal.Decimal) decimal.Decimal {
	return newPrice.Sub(currentPrice).Round(2)
}
