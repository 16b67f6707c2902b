package repository

import (
	"context"
	"study_plan_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointAwardRepository struct {
	DB *gorm.DB
}

func NewPointAwardRepository(db *gorm.DB) *PointAwardRepository {
	return &PointAwardRepository{DB: db}
}

// CreateOnce 按 IdempotencyKey 插入；已存在时返回已有记录
func (r *PointAwardRepository) CreateOnce(ctx context.Context, award *model.PointAward) (*model.PointAward, error) {
	db := r.DB.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(award)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return award, nil
	}
	var existing model.PointAward
	if err := db.Where("idempotency_key = ?", award.IdempotencyKey).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}
