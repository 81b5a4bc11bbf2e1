package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

// OutboxMessage is an event written in the same transaction as the change it describes.
// The dispatcher publishes it after commit.
type OutboxMessage struct {
	ID               int        `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	EventType        EventType  `gorm:"size:50;not null;index" json:"eventType"`
	ReferenceId      int        `gorm:"index" json:"referenceId"`
	Payload          []byte     `gorm:"type:blob" json:"payload"`
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publishStatus"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"publishedAt"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsubMessageId"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publishAttempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"nextAttemptAt"`
	LockedAt         *time.Time `gorm:"index" json:"lockedAt"`
	LockedBy         *string    `gorm:"size:100" json:"lockedBy"`
	LastPublishError *string    `gorm:"type:text" json:"lastPublishError"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlationId"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func createOutboxMessage(ctx context.Context, tx *gorm.DB, eventType EventType, referenceId int, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	msg := OutboxMessage{
		EventType:     eventType,
		ReferenceId:   referenceId,
		Payload:       data,
		PublishStatus: OutboxStatusPending,
		CorrelationId: correlationId,
	}
	return tx.Create(&msg).Error
}

func ConvertToEventMessage(record OutboxMessage) config.EventMessage {
	return config.EventMessage{
		ID:            record.ID,
		EventType:     string(record.EventType),
		ReferenceId:   record.ReferenceId,
		OccurredAt:    record.CreatedAt,
		Payload:       json.RawMessage(record.Payload),
		CorrelationId: record.CorrelationId,
	}
}
