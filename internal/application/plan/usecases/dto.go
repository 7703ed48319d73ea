package usecases

import (
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/plan"
)

// PlanDTO is the transport view of a plan.
type PlanDTO struct {
	ID             uint            `json:"id"`
	SID            string          `json:"sid"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description,omitempty"`
	MonthlyPrice   decimal.Decimal `json:"monthly_price"`
	YearlyPrice    decimal.Decimal `json:"yearly_price"`
	Currency       string          `json:"currency"`
	DataLimitBytes uint64          `json:"data_limit_bytes"`
	Unlimited      bool            `json:"unlimited"`
	SpeedMbps      uint            `json:"speed_mbps"`
	Status         string          `json:"status"`
	IsPublic       bool            `json:"is_public"`
	SortOrder      int             `json:"sort_order"`
	CreatedAt      time.Time       `json:"created_at"`
}

func ToPlanDTO(p *plan.Plan) *PlanDTO {
	return &PlanDTO{
		ID:             p.ID(),
		SID:            p.SID(),
		Name:           p.Name(),
		Slug:           p.Slug(),
		Description:    p.Description(),
		MonthlyPrice:   p.MonthlyPrice(),
		YearlyPrice:    p.YearlyPrice(),
		Currency:       p.Currency(),
		DataLimitBytes: p.DataLimitBytes(),
		Unlimited:      p.IsUnlimited(),
		SpeedMbps:      p.SpeedMbps(),
		Status:         string(p.Status()),
		IsPublic:       p.IsPublic(),
		SortOrder:      p.SortOrder(),
		CreatedAt:      p.CreatedAt(),
	}
}
