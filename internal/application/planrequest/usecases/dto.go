package usecases

import (
	"time"

	"github.com/shopspring/decimal"

	"bandwave/internal/domain/planrequest"
)

// RequestDTO is the transport view of a plan change request.
type RequestDTO struct {
	ID                   uint            `json:"id"`
	SID                  string          `json:"sid"`
	CustomerID           uint            `json:"customer_id"`
	SubscriptionID       *uint           `json:"subscription_id,omitempty"`
	RequestType          string          `json:"request_type"`
	CurrentPlanID        *uint           `json:"current_plan_id,omitempty"`
	RequestedPlanID      *uint           `json:"requested_plan_id,omitempty"`
	Reason               string          `json:"reason,omitempty"`
	Urgency              string          `json:"urgency"`
	Priority             int             `json:"priority"`
	Status               string          `json:"status"`
	Quote                QuoteDTO        `json:"quote"`
	AutoApprovalEligible bool            `json:"auto_approval_eligible"`
	AdminAction          *AdminActionDTO `json:"admin_action,omitempty"`
	AuditTrail           []AuditEntryDTO `json:"audit_trail,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// QuoteDTO is the price comparison frozen at submission.
type QuoteDTO struct {
	CurrentTotal    decimal.Decimal `json:"current_total"`
	NewTotal        decimal.Decimal `json:"new_total"`
	PriceDifference decimal.Decimal `json:"price_difference"`
	Currency        string          `json:"currency"`
}

// AdminActionDTO is the reviewer decision. InternalNotes are admin-only and
// stripped for customer-facing reads.
type AdminActionDTO struct {
	ReviewerID    uint      `json:"reviewer_id,omitempty"`
	DecidedAt     time.Time `json:"decided_at"`
	Comments      string    `json:"comments,omitempty"`
	InternalNotes string    `json:"internal_notes,omitempty"`
}

// AuditEntryDTO is one line of the request audit trail.
type AuditEntryDTO struct {
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QueueDTO is one admin-queue page.
type QueueDTO struct {
	Requests []*RequestDTO `json:"requests"`
	Total    int64         `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

func ToRequestDTO(req *planrequest.Request, includeInternal bool) *RequestDTO {
	quote := req.Quote()
	dto := &RequestDTO{
		ID:              req.ID(),
		SID:             req.SID(),
		CustomerID:      req.CustomerID(),
		SubscriptionID:  req.SubscriptionID(),
		RequestType:     req.RequestType().String(),
		CurrentPlanID:   req.CurrentPlanID(),
		RequestedPlanID: req.RequestedPlanID(),
		Reason:          req.Reason(),
		Urgency:         req.Urgency().String(),
		Priority:        req.Priority(),
		Status:          req.Status().String(),
		Quote: QuoteDTO{
			CurrentTotal:    quote.CurrentTotal(),
			NewTotal:        quote.NewTotal(),
			PriceDifference: quote.PriceDifference(),
			Currency:        quote.Currency(),
		},
		AutoApprovalEligible: req.AutoApprovalEligible(),
		CreatedAt:            req.CreatedAt(),
		UpdatedAt:            req.UpdatedAt(),
	}

	if action := req.AdminAction(); action != nil {
		dto.AdminAction = &AdminActionDTO{
			ReviewerID: action.ReviewerID,
			DecidedAt:  action.DecidedAt,
			Comments:   action.Comments,
		}
		if includeInternal {
			dto.AdminAction.InternalNotes = action.InternalNotes
		}
	}

	if includeInternal {
		for _, entry := range req.AuditTrail() {
			dto.AuditTrail = append(dto.AuditTrail, AuditEntryDTO{
				Action:    entry.Action,
				Actor:     entry.Actor,
				Note:      entry.Note,
				CreatedAt: entry.CreatedAt,
			})
		}
	}

	return dto
}
