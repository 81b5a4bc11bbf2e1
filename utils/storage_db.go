package utils

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoredObject holds file bytes when STORAGE_PROVIDER=db.
type StoredObject struct {
	Key         string    `gorm:"primaryKey;size:255" json:"key"`
	ContentType string    `gorm:"size:100;not null" json:"contentType"`
	Size        int       `gorm:"not null" json:"size"`
	Data        []byte    `gorm:"type:longblob;not null" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

type DBObjectStore struct{}

func (DBObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	obj := StoredObject{
		Key:         key,
		ContentType: contentType,
		Size:        len(data),
		Data:        data,
	}
	return config.GetDB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_type", "size", "data"}),
	}).Create(&obj).Error
}

func (DBObjectStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var obj StoredObject
	err := config.GetDB().WithContext(ctx).Where("`key` = ?", key).Take(&obj).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrorRecordNotFound
		}
		return nil, "", err
	}
	return obj.Data, obj.ContentType, nil
}

func (DBObjectStore) Delete(ctx context.Context, key string) error {
	return config.GetDB().WithContext(ctx).Where("`key` = ?", key).Delete(&StoredObject{}).Error
}
