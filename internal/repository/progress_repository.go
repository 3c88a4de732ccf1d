package repository

import (
	"context"
	"kiriboka_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

// FindOrCreateForUpdate 原子地插入 (user, item) 记录（已存在则忽略），
// 然后加行锁读取。必须在事务中调用。
func (r *ProgressRepository) FindOrCreateForUpdate(ctx context.Context, userID uint, ref model.ItemRef) (*model.ProgressRecord, error) {
	db := r.DB.WithContext(ctx)

	seed := &model.ProgressRecord{UserID: userID, ItemKind: ref.Kind, ItemID: ref.ID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, err
	}

	var record model.ProgressRecord
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND item_kind = ? AND item_id = ?", userID, ref.Kind, ref.ID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ProgressRepository) Save(ctx context.Context, record *model.ProgressRecord) error {
	return r.DB.WithContext(ctx).Save(record).Error
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID uint, kind model.ItemKind) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	db := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if kind != "" {
		db = db.Where("item_kind = ?", kind)
	}
	err := db.Order("id ASC").Find(&records).Error
	return records, err
}
