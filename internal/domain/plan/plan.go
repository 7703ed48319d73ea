package plan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	vo "bandwave/internal/domain/subscription/valueobjects"
	"bandwave/internal/shared/id"
)

type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusInactive PlanStatus = "inactive"
)

var validCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"INR": true,
	"JPY": true,
}

// Plan represents a broadband plan offering. Prices are fixed-point amounts
// per billing cycle; dataLimitBytes zero means unlimited.
type Plan struct {
	id             uint
	sid            string
	name           string
	slug           string
	description    string
	monthlyPrice   decimal.Decimal
	yearlyPrice    decimal.Decimal
	currency       string
	dataLimitBytes uint64
	speedMbps      uint
	status         PlanStatus
	isPublic       bool
	sortOrder      int
	createdAt      time.Time
	updatedAt      time.Time
}

func NewPlan(name, slug, description string, monthlyPrice, yearlyPrice decimal.Decimal,
	currency string, dataLimitBytes uint64, speedMbps uint) (*Plan, error) {

	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if slug == "" {
		return nil, fmt.Errorf("plan slug is required")
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("plan name too long (max 100 characters)")
	}
	if !validCurrencies[currency] {
		return nil, fmt.Errorf("invalid currency code: %s", currency)
	}
	if monthlyPrice.IsNegative() || yearlyPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}

	now := time.Now().UTC()
	return &Plan{
		sid:            id.MustGenerateWithPrefix(id.PrefixPlan, id.DefaultLength),
		name:           name,
		slug:           slug,
		description:    description,
		monthlyPrice:   monthlyPrice,
		yearlyPrice:    yearlyPrice,
		currency:       currency,
		dataLimitBytes: dataLimitBytes,
		speedMbps:      speedMbps,
		status:         PlanStatusActive,
		isPublic:       true,
		sortOrder:      0,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructParams carries persisted plan state back into the aggregate.
type ReconstructParams struct {
	ID             uint
	SID            string
	Name           string
	Slug           string
	Description    string
	MonthlyPrice   decimal.Decimal
	YearlyPrice    decimal.Decimal
	Currency       string
	DataLimitBytes uint64
	SpeedMbps      uint
	Status         string
	IsPublic       bool
	SortOrder      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func Reconstruct(p ReconstructParams) (*Plan, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}

	status := PlanStatus(p.Status)
	if status != PlanStatusActive && status != PlanStatusInactive {
		return nil, fmt.Errorf("invalid plan status: %s", p.Status)
	}

	return &Plan{
		id:             p.ID,
		sid:            p.SID,
		name:           p.Name,
		slug:           p.Slug,
		description:    p.Description,
		monthlyPrice:   p.MonthlyPrice,
		yearlyPrice:    p.YearlyPrice,
		currency:       p.Currency,
		dataLimitBytes: p.DataLimitBytes,
		speedMbps:      p.SpeedMbps,
		status:         status,
		isPublic:       p.IsPublic,
		sortOrder:      p.SortOrder,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}, nil
}

func (p *Plan) ID() uint                      { return p.id }
func (p *Plan) SID() string                   { return p.sid }
func (p *Plan) Name() string                  { return p.name }
func (p *Plan) Slug() string                  { return p.slug }
func (p *Plan) Description() string           { return p.description }
func (p *Plan) Currency() string              { return p.currency }
func (p *Plan) DataLimitBytes() uint64        { return p.dataLimitBytes }
func (p *Plan) SpeedMbps() uint               { return p.speedMbps }
func (p *Plan) Status() PlanStatus            { return p.status }
func (p *Plan) IsPublic() bool                { return p.isPublic }
func (p *Plan) SortOrder() int                { return p.sortOrder }
func (p *Plan) CreatedAt() time.Time          { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time          { return p.updatedAt }
func (p *Plan) MonthlyPrice() decimal.Decimal { return p.monthlyPrice }
func (p *Plan) YearlyPrice() decimal.Decimal  { return p.yearlyPrice }

// SetID sets the plan ID (only for persistence layer use)
func (p *Plan) SetID(planID uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	if planID == 0 {
		return fmt.Errorf("plan ID cannot be zero")
	}
	p.id = planID
	return nil
}

// PriceFor returns the plan's price for the given billing cycle tier.
func (p *Plan) PriceFor(cycle vo.BillingCycle) decimal.Decimal {
	switch cycle {
	case vo.BillingCycleYearly:
		return p.yearlyPrice
	default:
		return p.monthlyPrice
	}
}

// IsUnlimited reports whether the plan has no data cap.
func (p *Plan) IsUnlimited() bool {
	return p.dataLimitBytes == 0
}

func (p *Plan) IsActive() bool {
	return p.status == PlanStatusActive
}

func (p *Plan) Deactivate() {
	if p.status == PlanStatusInactive {
		return
	}
	p.status = PlanStatusInactive
	p.updatedAt = time.Now().UTC()
}

func (p *Plan) Activate() {
	if p.status == PlanStatusActive {
		return
	}
	p.status = PlanStatusActive
	p.updatedAt = time.Now().UTC()
}
