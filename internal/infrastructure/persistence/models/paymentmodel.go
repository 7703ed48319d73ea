package models

import (
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/shared/constants"
)

// PaymentModel is one append-only payment row on a subscription.
type PaymentModel struct {
	ID             uint            `gorm:"primarykey"`
	SubscriptionID uint            `gorm:"not null;index:idx_payment_subscription"`
	PaidAt         time.Time       `gorm:"not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Method         string          `gorm:"not null;size:30"`
	TransactionRef string          `gorm:"uniqueIndex;not null;size:100"`
	Status         string          `gorm:"not null;size:20"`
	CreatedAt      time.Time
}

func (PaymentModel) TableName() string {
	return constants.TablePayments
}
