package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandwave/internal/domain/plan"
	vo "bandwave/internal/domain/subscription/valueobjects"
)

func testPlan(t *testing.T, monthly, yearly string) *plan.Plan {
	t.Helper()
	p, err := plan.Reconstruct(plan.ReconstructParams{
		ID:           1,
		SID:          "plan_test",
		Name:         "Fiber 100",
		Slug:         "fiber-100",
		MonthlyPrice: decimal.RequireFromString(monthly),
		YearlyPrice:  decimal.RequireFromString(yearly),
		Currency:     "USD",
		SpeedMbps:    100,
		Status:       "active",
	})
	require.NoError(t, err)
	return p
}

func TestProratedCredit(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		cycleDays     int
		remainingDays int
		expected      string
	}{
		{"yearly mid-cycle", "1200.00", 365, 90, "295.89"},
		{"monthly mid-cycle", "50.00", 30, 15, "25"},
		{"nothing remaining", "50.00", 30, 0, "0"},
		{"full cycle remaining", "50.00", 30, 30, "50"},
		{"remaining clamped to cycle length", "50.00", 30, 45, "50"},
		{"rounds half up", "10.00", 30, 7, "2.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credit, err := ProratedCredit(decimal.RequireFromString(tt.amount), tt.cycleDays, tt.remainingDays)
			require.NoError(t, err)
			assert.True(t, credit.Equal(decimal.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, credit)
		})
	}
}

func TestProratedCredit_InvalidInput(t *testing.T) {
	_, err := ProratedCredit(decimal.NewFromInt(100), 0, 10)
	assert.Error(t, err)

	_, err = ProratedCredit(decimal.NewFromInt(100), -30, 10)
	assert.Error(t, err)

	_, err = ProratedCredit(decimal.NewFromInt(100), 30, -1)
	assert.Error(t, err)
}

func TestApplyDiscount(t *testing.T) {
	base := decimal.RequireFromString("50.00")

	discounted, discount := ApplyDiscount(base, "")
	assert.True(t, discounted.Equal(base))
	assert.True(t, discount.IsZero())

	discounted, discount = ApplyDiscount(base, "WELCOME10")
	assert.True(t, discount.Equal(decimal.RequireFromString("5")), "got %s", discount)
	assert.True(t, discounted.Equal(decimal.RequireFromString("45")), "got %s", discounted)
}

func TestApplyTax(t *testing.T) {
	price := decimal.RequireFromString("45.00")

	tax, total := ApplyTax(price, decimal.Zero)
	assert.True(t, tax.IsZero())
	assert.True(t, total.Equal(price))

	tax, total = ApplyTax(price, decimal.NewFromInt(18))
	assert.True(t, tax.Equal(decimal.RequireFromString("8.1")), "got %s", tax)
	assert.True(t, total.Equal(decimal.RequireFromString("53.1")), "got %s", total)
}

func TestQuoteCycle(t *testing.T) {
	p := testPlan(t, "50.00", "500.00")

	q := QuoteCycle(p, vo.BillingCycleMonthly, "WELCOME10", decimal.NewFromInt(18))

	assert.True(t, q.BasePrice.Equal(decimal.RequireFromString("50")), "base %s", q.BasePrice)
	assert.True(t, q.Discount.Equal(decimal.RequireFromString("5")), "discount %s", q.Discount)
	assert.True(t, q.TaxAmount.Equal(decimal.RequireFromString("8.1")), "tax %s", q.TaxAmount)
	assert.True(t, q.Total.Equal(decimal.RequireFromString("53.1")), "total %s", q.Total)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, "WELCOME10", q.DiscountCode)
}

func TestQuoteCycle_YearlyNoDiscount(t *testing.T) {
	p := testPlan(t, "50.00", "500.00")

	q := QuoteCycle(p, vo.BillingCycleYearly, "", decimal.Zero)

	assert.True(t, q.BasePrice.Equal(decimal.RequireFromString("500")))
	assert.True(t, q.Discount.IsZero())
	assert.True(t, q.TaxAmount.IsZero())
	assert.True(t, q.Total.Equal(decimal.RequireFromString("500")))
}

func TestQuoteCycle_RoundsOnceAtOutput(t *testing.T) {
	// 33.33 with discount: discount 3.333 -> discounted 29.997, 10% tax
	// 2.9997 -> total 32.9967. Fields round independently at the edge.
	p := testPlan(t, "33.33", "333.33")

	q := QuoteCycle(p, vo.BillingCycleMonthly, "SAVE", decimal.NewFromInt(10))

	assert.True(t, q.Discount.Equal(decimal.RequireFromString("3.33")), "discount %s", q.Discount)
	assert.True(t, q.TaxAmount.Equal(decimal.RequireFromString("3")), "tax %s", q.TaxAmount)
	assert.True(t, q.Total.Equal(decimal.RequireFromString("33")), "total %s", q.Total)
}

func TestPriceDifference(t *testing.T) {
	diff := PriceDifference(decimal.RequireFromString("50.00"), decimal.RequireFromString("80.00"))
	assert.True(t, diff.Equal(decimal.RequireFromString("30")))

	diff = PriceDifference(decimal.RequireFromString("80.00"), decimal.RequireFromString("50.00"))
	assert.True(t, diff.Equal(decimal.RequireFromString("-30")))
	assert.True(t, diff.IsNegative())
}
