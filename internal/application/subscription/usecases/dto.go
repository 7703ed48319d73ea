package usecases

import (
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/subscription"
)

// SubscriptionDTO is the transport view of a subscription.
type SubscriptionDTO struct {
	ID                 uint             `json:"id"`
	SID                string           `json:"sid"`
	CustomerID         uint             `json:"customer_id"`
	PlanID             uint             `json:"plan_id"`
	BillingCycle       string           `json:"billing_cycle"`
	Status             string           `json:"status"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	Pricing            PricingDTO       `json:"pricing"`
	OutstandingBalance decimal.Decimal  `json:"outstanding_balance"`
	ScheduledPlanID    *uint            `json:"scheduled_plan_id,omitempty"`
	ScheduledEffective *time.Time       `json:"scheduled_effective,omitempty"`
	Cancellation       *CancellationDTO `json:"cancellation,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// PricingDTO is the frozen price breakdown captured at write time.
type PricingDTO struct {
	BasePrice    decimal.Decimal `json:"base_price"`
	Discount     decimal.Decimal `json:"discount"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	DiscountCode string          `json:"discount_code,omitempty"`
}

// CancellationDTO carries the cancellation terms once a subscription is
// cancelled.
type CancellationDTO struct {
	RequestedAt    time.Time       `json:"requested_at"`
	EffectiveAt    time.Time       `json:"effective_at"`
	Reason         string          `json:"reason"`
	RefundEligible bool            `json:"refund_eligible"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
}

// HistoryEntryDTO is one record of the subscription audit trail.
type HistoryEntryDTO struct {
	ID          uint      `json:"id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	Actor       string    `json:"actor"`
	Payload     any       `json:"payload,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentDTO is one record of the subscription payment history.
type PaymentDTO struct {
	ID             uint            `json:"id"`
	PaidAt         time.Time       `json:"paid_at"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	TransactionRef string          `json:"transaction_ref"`
	Status         string          `json:"status"`
}

func ToSubscriptionDTO(sub *subscription.Subscription) *SubscriptionDTO {
	dto := &SubscriptionDTO{
		ID:                 sub.ID(),
		SID:                sub.SID(),
		CustomerID:         sub.CustomerID(),
		PlanID:             sub.PlanID(),
		BillingCycle:       sub.BillingCycle().String(),
		Status:             sub.Status().String(),
		StartDate:          sub.StartDate(),
		EndDate:            sub.EndDate(),
		OutstandingBalance: sub.OutstandingBalance(),
		ScheduledPlanID:    sub.ScheduledPlanID(),
		ScheduledEffective: sub.ScheduledEffective(),
		CreatedAt:          sub.CreatedAt(),
		UpdatedAt:          sub.UpdatedAt(),
	}

	pricing := sub.Pricing()
	dto.Pricing = PricingDTO{
		BasePrice:    pricing.BasePrice(),
		Discount:     pricing.Discount(),
		TaxAmount:    pricing.TaxAmount(),
		Total:        pricing.Total(),
		Currency:     pricing.Currency(),
		DiscountCode: pricing.DiscountCode(),
	}

	if c := sub.Cancellation(); c != nil {
		dto.Cancellation = &CancellationDTO{
			RequestedAt:    c.RequestedAt(),
			EffectiveAt:    c.EffectiveAt(),
			Reason:         c.Reason(),
			RefundEligible: c.RefundEligible(),
			RefundAmount:   c.RefundAmount(),
		}
	}

	return dto
}

func ToHistoryEntryDTO(entry *subscription.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:          entry.ID(),
		EventType:   string(entry.EventType()),
		Description: entry.Description(),
		Actor:       entry.Actor(),
		Payload:     entry.Payload(),
		CreatedAt:   entry.CreatedAt(),
	}
}

func ToPaymentDTO(record *subscription.PaymentRecord) PaymentDTO {
	return PaymentDTO{
		ID:             record.ID(),
		PaidAt:         record.PaidAt(),
		Amount:         record.Amount(),
		Method:         record.Method(),
		TransactionRef: record.TransactionRef(),
		Status:         string(record.Status()),
	}
}
