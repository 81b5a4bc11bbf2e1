package models

import "time"

// OutboxStatus is an operator-facing view of the latest outbox row for a reference.
type OutboxStatus struct {
	RecordId         int        `json:"recordId"`
	EventType        EventType  `json:"eventType"`
	ReferenceId      int        `json:"referenceId"`
	PublishStatus    string     `json:"publishStatus"`
	PublishAttempts  int        `json:"publishAttempts"`
	NextAttemptAt    *time.Time `json:"nextAttemptAt"`
	LastPublishError *string    `json:"lastPublishError"`
	CreatedAt        time.Time  `json:"createdAt"`
	PublishedAt      *time.Time `json:"publishedAt"`
}

func (rec OutboxMessage) Status() *OutboxStatus {
	return &OutboxStatus{
		RecordId:         rec.ID,
		EventType:        rec.EventType,
		ReferenceId:      rec.ReferenceId,
		PublishStatus:    rec.PublishStatus,
		PublishAttempts:  rec.PublishAttempts,
		NextAttemptAt:    rec.NextAttemptAt,
		LastPublishError: rec.LastPublishError,
		CreatedAt:        rec.CreatedAt,
		PublishedAt:      rec.PublishedAt,
	}
}
