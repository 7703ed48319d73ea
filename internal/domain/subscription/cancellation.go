package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

// CancellationRecord captures the terms a subscription was cancelled under.
// Present only once cancelled; immutable afterwards.
type CancellationRecord struct {
	requestedAt    time.Time
	effectiveAt    time.Time
	reason         string
	refundEligible bool
	refundAmount   decimal.Decimal
}

func NewCancellationRecord(requestedAt, effectiveAt time.Time, reason string,
	refundEligible bool, refundAmount decimal.Decimal) CancellationRecord {

	if !refundEligible {
		refundAmount = decimal.Zero
	}
	return CancellationRecord{
		requestedAt:    requestedAt,
		effectiveAt:    effectiveAt,
		reason:         reason,
		refundEligible: refundEligible,
		refundAmount:   refundAmount,
	}
}

func (c CancellationRecord) RequestedAt() time.Time        { return c.requestedAt }
func (c CancellationRecord) EffectiveAt() time.Time        { return c.effectiveAt }
func (c CancellationRecord) Reason() string                { return c.reason }
func (c CancellationRecord) RefundEligible() bool          { return c.refundEligible }
func (c CancellationRecord) RefundAmount() decimal.Decimal { return c.refundAmount }
