package repository

import (
	"context"
	"kiriboka_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) WithTx(tx *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: tx}
}

func (r *BadgeRepository) FindByUserID(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	var badges []model.UserBadge
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("earned_at ASC, id ASC").Find(&badges).Error
	return badges, err
}

// Award 已有的徽章不会被覆盖，返回是否为新获得
func (r *BadgeRepository) Award(ctx context.Context, userID uint, badgeID model.BadgeID, earnedAt time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.UserBadge{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: earnedAt,
	})
	return res.RowsAffected > 0, res.Error
}
