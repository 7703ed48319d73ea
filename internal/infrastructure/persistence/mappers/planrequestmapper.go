package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"bandwave/internal/domain/planrequest"
	"bandwave/internal/infrastructure/persistence/models"
)

type PlanRequestMapper interface {
	ToEntity(model *models.PlanRequestModel) (*planrequest.Request, error)
	ToModel(entity *planrequest.Request) (*models.PlanRequestModel, error)
	ToEntities(models []*models.PlanRequestModel) ([]*planrequest.Request, error)
}

type PlanRequestMapperImpl struct{}

func NewPlanRequestMapper() PlanRequestMapper {
	return &PlanRequestMapperImpl{}
}

// adminActionDoc is the JSON shape of the stored reviewer decision.
type adminActionDoc struct {
	ReviewerID    uint      `json:"reviewer_id,omitempty"`
	DecidedAt     time.Time `json:"decided_at"`
	Comments      string    `json:"comments,omitempty"`
	InternalNotes string    `json:"internal_notes,omitempty"`
}

// auditEntryDoc is the JSON shape of one audit trail line.
type auditEntryDoc struct {
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *PlanRequestMapperImpl) ToEntity(model *models.PlanRequestModel) (*planrequest.Request, error) {
	if model == nil {
		return nil, nil
	}

	var adminAction *planrequest.AdminAction
	if len(model.AdminAction) > 0 {
		var doc adminActionDoc
		if err := json.Unmarshal(model.AdminAction, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal admin action: %w", err)
		}
		adminAction = &planrequest.AdminAction{
			ReviewerID:    doc.ReviewerID,
			DecidedAt:     doc.DecidedAt,
			Comments:      doc.Comments,
			InternalNotes: doc.InternalNotes,
		}
	}

	var auditTrail []planrequest.AuditEntry
	if len(model.AuditTrail) > 0 {
		var docs []auditEntryDoc
		if err := json.Unmarshal(model.AuditTrail, &docs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit trail: %w", err)
		}
		for _, doc := range docs {
			auditTrail = append(auditTrail, planrequest.AuditEntry{
				Action:    doc.Action,
				Actor:     doc.Actor,
				Note:      doc.Note,
				CreatedAt: doc.CreatedAt,
			})
		}
	}

	quote := planrequest.ReconstructPricingQuote(model.CurrentTotal, model.NewTotal,
		model.PriceDifference, model.Currency)

	entity, err := planrequest.Reconstruct(planrequest.ReconstructParams{
		ID:                   model.ID,
		SID:                  model.SID,
		CustomerID:           model.CustomerID,
		SubscriptionID:       model.SubscriptionID,
		RequestType:          planrequest.RequestType(model.RequestType),
		CurrentPlanID:        model.CurrentPlanID,
		RequestedPlanID:      model.RequestedPlanID,
		Reason:               model.Reason,
		Urgency:              planrequest.Urgency(model.Urgency),
		Priority:             model.Priority,
		Status:               planrequest.RequestStatus(model.Status),
		Quote:                quote,
		AutoApprovalEligible: model.AutoApproval,
		AdminAction:          adminAction,
		AuditTrail:           auditTrail,
		Version:              model.Version,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan request entity: %w", err)
	}
	return entity, nil
}

func (m *PlanRequestMapperImpl) ToModel(entity *planrequest.Request) (*models.PlanRequestModel, error) {
	if entity == nil {
		return nil, nil
	}

	model := &models.PlanRequestModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		CustomerID:      entity.CustomerID(),
		SubscriptionID:  entity.SubscriptionID(),
		RequestType:     entity.RequestType().String(),
		CurrentPlanID:   entity.CurrentPlanID(),
		RequestedPlanID: entity.RequestedPlanID(),
		Reason:          entity.Reason(),
		Urgency:         entity.Urgency().String(),
		Priority:        entity.Priority(),
		Status:          entity.Status().String(),
		CurrentTotal:    entity.Quote().CurrentTotal(),
		NewTotal:        entity.Quote().NewTotal(),
		PriceDifference: entity.Quote().PriceDifference(),
		Currency:        entity.Quote().Currency(),
		AutoApproval:    entity.AutoApprovalEligible(),
		Version:         entity.Version(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}

	if action := entity.AdminAction(); action != nil {
		raw, err := json.Marshal(adminActionDoc{
			ReviewerID:    action.ReviewerID,
			DecidedAt:     action.DecidedAt,
			Comments:      action.Comments,
			InternalNotes: action.InternalNotes,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal admin action: %w", err)
		}
		model.AdminAction = raw
	}

	if trail := entity.AuditTrail(); len(trail) > 0 {
		docs := make([]auditEntryDoc, 0, len(trail))
		for _, entry := range trail {
			docs = append(docs, auditEntryDoc{
				Action:    entry.Action,
				Actor:     entry.Actor,
				Note:      entry.Note,
				CreatedAt: entry.CreatedAt,
			})
		}
		raw, err := json.Marshal(docs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit trail: %w", err)
		}
		model.AuditTrail = raw
	}

	return model, nil
}

func (m *PlanRequestMapperImpl) ToEntities(requestModels []*models.PlanRequestModel) ([]*planrequest.Request, error) {
	entities := make([]*planrequest.Request, 0, len(requestModels))
	for _, model := range requestModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
