package models

import (
	"context"
	"errors"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

func GetOutboxStatus(ctx context.Context, eventType EventType, referenceId int) (*OutboxStatus, error) {
	db := config.GetDB()
	var rec OutboxMessage
	if err := db.WithContext(ctx).
		Where("event_type = ? AND reference_id = ?", eventType, referenceId).
		Order("id DESC").
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return rec.Status(), nil
}

// ListOutboxMessages returns the newest rows, optionally filtered by publish status.
func ListOutboxMessages(ctx context.Context, status string, limit int) ([]*OutboxStatus, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	db := config.GetDB()
	query := db.WithContext(ctx).Order("id DESC").Limit(limit)
	if status != "" {
		query = query.Where("publish_status = ?", status)
	}
	var records []OutboxMessage
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	result := make([]*OutboxStatus, 0, len(records))
	for _, rec := range records {
		result = append(result, rec.Status())
	}
	return result, nil
}
