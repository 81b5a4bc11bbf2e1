package models

import (
	"context"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
)

// ReplayOutbox puts DEAD and FAILED rows back to PENDING with a fresh attempt budget.
// A zero referenceId replays every such row of the event type; an empty event type replays all.
func ReplayOutbox(ctx context.Context, eventType EventType, referenceId int) (int64, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).
		Model(&OutboxMessage{}).
		Where("publish_status IN ?", []string{OutboxStatusDead, OutboxStatusFailed})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if referenceId > 0 {
		query = query.Where("reference_id = ?", referenceId)
	}

	res := query.Updates(map[string]interface{}{
		"locked_at":        nil,
		"locked_by":        nil,
		"publish_status":   OutboxStatusPending,
		"publish_attempts": 0,
		"next_attempt_at":  nil,
	})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 && referenceId > 0 {
		return 0, utils.ErrorRecordNotFound
	}
	return res.RowsAffected, nil
}
