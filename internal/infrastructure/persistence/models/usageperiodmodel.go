package models

import (
	"time"

	"gorm.io/datatypes"

	"bandwave/internal/shared/constants"
)

// UsagePeriodModel accumulates one billing period of usage per subscription.
// Daily holds the per-business-day buckets; AlertedThresholds is the
// at-most-once alert ledger for the period.
type UsagePeriodModel struct {
	ID                uint      `gorm:"primarykey"`
	SID               string    `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: use_xxx"`
	SubscriptionID    uint      `gorm:"not null;index:idx_usage_subscription_period,priority:1"`
	PeriodStart       time.Time `gorm:"not null;index:idx_usage_subscription_period,priority:2"`
	PeriodEnd         time.Time `gorm:"not null"`
	TotalBytesUp      uint64    `gorm:"not null;default:0"`
	TotalBytesDown    uint64    `gorm:"not null;default:0"`
	SessionCount      int       `gorm:"not null;default:0"`
	TotalDurationSecs int64     `gorm:"not null;default:0"`
	AvgSpeedMbps      float64   `gorm:"not null;default:0"`
	PeakSpeedMbps     float64   `gorm:"not null;default:0"`
	SpeedSamples      int       `gorm:"not null;default:0"`
	Daily             datatypes.JSON
	AlertedThresholds datatypes.JSON
	Version           int `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (UsagePeriodModel) TableName() string {
	return constants.TableUsagePeriods
}
