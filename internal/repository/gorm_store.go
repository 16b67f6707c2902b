package repository

import (
	"context"
	"errors"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKVStore 把键值对存入 kv_entries 表
type GormKVStore struct {
	DB *gorm.DB
}

func NewGormKVStore(db *gorm.DB) *GormKVStore {
	return &GormKVStore{DB: db}
}

func (s *GormKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry model.KVEntry
	err := s.DB.WithContext(ctx).Where("kv_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (s *GormKVStore) Set(ctx context.Context, key string, value []byte) error {
	return upsertEntry(s.DB.WithContext(ctx), key, value)
}

func (s *GormKVStore) Write(ctx context.Context, sets map[string][]byte, deletes []string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range sets {
			if err := upsertEntry(tx, k, v); err != nil {
				return err
			}
		}
		if len(deletes) > 0 {
			if err := tx.Where("kv_key IN ?", deletes).Delete(&model.KVEntry{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormKVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Where("kv_key IN ?", keys).Delete(&model.KVEntry{}).Error
}

func (s *GormKVStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func upsertEntry(tx *gorm.DB, key string, value []byte) error {
	entry := model.KVEntry{Key: key, Value: value}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}
