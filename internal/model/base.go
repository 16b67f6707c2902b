package model

import (
	"time"

	"gorm.io/gorm"
)

// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// KVEntry mysql 后端下的键值存储表
type KVEntry struct {
	Key       string    `gorm:"column:kv_key;primaryKey;size:255"`
	Value     []byte    `gorm:"type:longblob;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// PointAward 积分发放流水
type PointAward struct {
	BaseModel
	IdempotencyKey   string `gorm:"uniqueIndex;size:255;not null"`
	UserID           string `gorm:"index;size:64;not null"`
	ActivityKind     string `gorm:"size:50;not null"`
	Subject          string `gorm:"size:100"`
	Description      string `gorm:"size:500"`
	TimeSpentSeconds int    `gorm:"default:0"`
	Points           int    `gorm:"not null"`
}

func (PointAward) TableName() string {
	return "point_awards"
}
