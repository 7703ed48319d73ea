package mappers

import (
	"encoding/json"
	"fmt"

	"bandwave/internal/domain/subscription"
	"bandwave/internal/infrastructure/persistence/models"
)

type SubscriptionHistoryMapper interface {
	ToEntity(model *models.SubscriptionHistoryModel) (*subscription.HistoryEntry, error)
	ToModel(entry *subscription.HistoryEntry) (*models.SubscriptionHistoryModel, error)
	ToEntities(models []*models.SubscriptionHistoryModel) ([]*subscription.HistoryEntry, error)
}

type SubscriptionHistoryMapperImpl struct{}

func NewSubscriptionHistoryMapper() SubscriptionHistoryMapper {
	return &SubscriptionHistoryMapperImpl{}
}

func decodePayload[T subscription.HistoryPayload](raw []byte) (subscription.HistoryPayload, error) {
	var p T
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history payload: %w", err)
	}
	return p, nil
}

// unmarshalPayload decodes the stored JSON into the concrete payload type
// selected by the event type. The history sequence is heterogeneous but each
// row's shape is statically known from its event_type column.
func unmarshalPayload(eventType subscription.HistoryEventType, raw []byte) (subscription.HistoryPayload, error) {
	switch eventType {
	case subscription.HistoryEventCreated:
		return decodePayload[subscription.CreationPayload](raw)
	case subscription.HistoryEventActivated:
		return decodePayload[subscription.ActivationPayload](raw)
	case subscription.HistoryEventUpgraded:
		return decodePayload[subscription.UpgradePayload](raw)
	case subscription.HistoryEventDowngraded:
		return decodePayload[subscription.DowngradePayload](raw)
	case subscription.HistoryEventDowngradeScheduled:
		return decodePayload[subscription.DowngradeSchedulePayload](raw)
	case subscription.HistoryEventCancelled:
		return decodePayload[subscription.CancellationPayload](raw)
	case subscription.HistoryEventSuspended:
		return decodePayload[subscription.SuspensionPayload](raw)
	case subscription.HistoryEventResumed:
		return decodePayload[subscription.ResumePayload](raw)
	case subscription.HistoryEventRenewed:
		return decodePayload[subscription.RenewalPayload](raw)
	case subscription.HistoryEventExpired:
		return decodePayload[subscription.ExpiryPayload](raw)
	default:
		return nil, fmt.Errorf("unknown history event type: %s", eventType)
	}
}

func (m *SubscriptionHistoryMapperImpl) ToEntity(model *models.SubscriptionHistoryModel) (*subscription.HistoryEntry, error) {
	if model == nil {
		return nil, nil
	}

	eventType := subscription.HistoryEventType(model.EventType)
	payload, err := unmarshalPayload(eventType, model.Payload)
	if err != nil {
		return nil, err
	}

	entry, err := subscription.ReconstructHistoryEntry(model.ID, model.SubscriptionID,
		eventType, model.Description, model.Actor, payload, model.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct history entry: %w", err)
	}
	return entry, nil
}

func (m *SubscriptionHistoryMapperImpl) ToModel(entry *subscription.HistoryEntry) (*models.SubscriptionHistoryModel, error) {
	if entry == nil {
		return nil, nil
	}

	var raw []byte
	if entry.Payload() != nil {
		var err error
		raw, err = json.Marshal(entry.Payload())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", entry.EventType(), err)
		}
	}

	return &models.SubscriptionHistoryModel{
		ID:             entry.ID(),
		SubscriptionID: entry.SubscriptionID(),
		EventType:      string(entry.EventType()),
		Description:    entry.Description(),
		Actor:          entry.Actor(),
		Payload:        raw,
		CreatedAt:      entry.CreatedAt(),
	}, nil
}

func (m *SubscriptionHistoryMapperImpl) ToEntities(historyModels []*models.SubscriptionHistoryModel) ([]*subscription.HistoryEntry, error) {
	entries := make([]*subscription.HistoryEntry, 0, len(historyModels))
	for _, model := range historyModels {
		entry, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
