package repository

import (
	"context"
	"kiriboka_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DayProgressRepository struct {
	DB *gorm.DB
}

func NewDayProgressRepository(db *gorm.DB) *DayProgressRepository {
	return &DayProgressRepository{DB: db}
}

func (r *DayProgressRepository) WithTx(tx *gorm.DB) *DayProgressRepository {
	return &DayProgressRepository{DB: tx}
}

// FindOrCreateForUpdate 与 ProgressRepository 相同的 upsert + 行锁模式
func (r *DayProgressRepository) FindOrCreateForUpdate(ctx context.Context, userID uint, day int) (*model.DayProgress, error) {
	db := r.DB.WithContext(ctx)

	seed := &model.DayProgress{UserID: userID, Day: day}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, err
	}

	var row model.DayProgress
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND day = ?", userID, day).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *DayProgressRepository) Save(ctx context.Context, row *model.DayProgress) error {
	return r.DB.WithContext(ctx).Save(row).Error
}

func (r *DayProgressRepository) ListByUser(ctx context.Context, userID uint) ([]model.DayProgress, error) {
	var rows []model.DayProgress
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("day ASC").Find(&rows).Error
	return rows, err
}

// MaxDay 用户已有的最大学习日，没有记录时返回 0
func (r *DayProgressRepository) MaxDay(ctx context.Context, userID uint) (int, error) {
	var maxDay *int
	err := r.DB.WithContext(ctx).Model(&model.DayProgress{}).
		Where("user_id = ?", userID).
		Select("MAX(day)").
		Scan(&maxDay).Error
	if err != nil || maxDay == nil {
		return 0, err
	}
	return *maxDay, nil
}
