package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bandwave/internal/shared/constants"
)

// SubscriptionModel is the persistence model for subscriptions. The pricing
// snapshot is flattened into columns; it is written once per state change
// and never recomputed from the plan.
type SubscriptionModel struct {
	ID                 uint            `gorm:"primarykey"`
	SID                string          `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	UUID               string          `gorm:"uniqueIndex;not null;size:36"`
	CustomerID         uint            `gorm:"not null;index:idx_customer_status,priority:1"`
	PlanID             uint            `gorm:"not null;index:idx_plan_subscription"`
	BillingCycle       string          `gorm:"not null;size:20"`
	Status             string          `gorm:"not null;size:20;index:idx_customer_status,priority:2"`
	StartDate          time.Time       `gorm:"not null"`
	EndDate            time.Time       `gorm:"not null;index:idx_end_date"`
	BasePrice          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Discount           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Total              decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency           string          `gorm:"not null;size:3"`
	DiscountCode       string          `gorm:"size:50"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	ScheduledPlanID    *uint           `gorm:"index:idx_scheduled_effective,priority:1"`
	ScheduledEffective *time.Time      `gorm:"index:idx_scheduled_effective,priority:2"`
	CancelRequestedAt  *time.Time
	CancelEffectiveAt  *time.Time
	CancelReason       *string          `gorm:"size:500"`
	RefundEligible     bool             `gorm:"not null;default:false"`
	RefundAmount       *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Version            int              `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
