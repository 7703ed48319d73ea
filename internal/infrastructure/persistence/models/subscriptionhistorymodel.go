package models

import (
	"time"

	"gorm.io/datatypes"

	"bandwave/internal/shared/constants"
)

// SubscriptionHistoryModel is one append-only audit row. Payload holds the
// event-specific metadata as JSON; its shape is fixed by EventType.
type SubscriptionHistoryModel struct {
	ID             uint           `gorm:"primarykey"`
	SubscriptionID uint           `gorm:"not null;index:idx_history_subscription"`
	EventType      string         `gorm:"not null;size:30;index:idx_history_event_type"`
	Description    string         `gorm:"size:500"`
	Actor          string         `gorm:"not null;size:30"`
	Payload        datatypes.JSON `gorm:"comment:event-specific metadata keyed by event_type"`
	CreatedAt      time.Time      `gorm:"index:idx_history_created"`
}

func (SubscriptionHistoryModel) TableName() string {
	return constants.TableSubscriptionHistory
}
