package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bandwave/internal/shared/constants"
)

// PlanRequestModel is the persistence model for plan change requests. The
// pricing quote is flattened into columns; the admin action and audit trail
// are JSON documents.
type PlanRequestModel struct {
	ID              uint   `gorm:"primarykey"`
	SID             string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: req_xxx"`
	CustomerID      uint   `gorm:"not null;index:idx_request_customer_status,priority:1"`
	SubscriptionID  *uint  `gorm:"index:idx_request_subscription"`
	RequestType     string `gorm:"not null;size:30"`
	CurrentPlanID   *uint
	RequestedPlanID *uint
	Reason          string          `gorm:"size:500"`
	Urgency         string          `gorm:"not null;size:10"`
	Priority        int             `gorm:"not null;index:idx_request_queue,priority:1,sort:desc"`
	Status          string          `gorm:"not null;size:20;index:idx_request_customer_status,priority:2"`
	CurrentTotal    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	NewTotal        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PriceDifference decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Currency        string          `gorm:"size:3"`
	AutoApproval    bool            `gorm:"not null;default:false"`
	AdminAction     datatypes.JSON
	AuditTrail      datatypes.JSON
	Version         int       `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"index:idx_request_queue,priority:2"`
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (PlanRequestModel) TableName() string {
	return constants.TablePlanRequests
}

// BeforeCreate hook for GORM
func (p *PlanRequestModel) BeforeCreate(tx *gorm.DB) error {
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}
