package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bandwave/internal/shared/constants"
)

// PlanModel is the persistence model for broadband plans. It is the
// anti-corruption layer between the domain aggregate and the database.
type PlanModel struct {
	ID             uint            `gorm:"primarykey"`
	SID            string          `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: plan_xxx"`
	Name           string          `gorm:"not null;size:100"`
	Slug           string          `gorm:"uniqueIndex;not null;size:100"`
	Description    string          `gorm:"size:500"`
	MonthlyPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	YearlyPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency       string          `gorm:"not null;size:3"`
	DataLimitBytes uint64          `gorm:"not null;default:0;comment:0 means unlimited"`
	SpeedMbps      uint            `gorm:"not null;default:0"`
	Status         string          `gorm:"not null;size:20;index:idx_plan_status"`
	IsPublic       bool            `gorm:"not null;default:true"`
	SortOrder      int             `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (PlanModel) TableName() string {
	return constants.TablePlans
}
