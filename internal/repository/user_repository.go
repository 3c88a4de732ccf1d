package repository

import (
	"context"
	"kiriboka_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

// UserFilter 管理端用户列表筛选条件
type UserFilter struct {
	Role     string
	Search   string
	Disabled *bool
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", at).
		Error
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int, filter UserFilter) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Disabled != nil {
		query = query.Where("disabled = ?", *filter.Disabled)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", searchTerm, searchTerm)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("id ASC").Find(&users).Error
	return users, total, err
}

// DeleteCascade 删除用户及其全部学习数据，调用方负责事务
func (r *UserRepository) DeleteCascade(ctx context.Context, userID uint) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&model.ProgressRecord{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", userID).Delete(&model.DayProgress{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", userID).Delete(&model.UserBadge{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", userID).Delete(&model.UserStats{}).Error; err != nil {
		return err
	}
	return db.Unscoped().Delete(&model.User{}, userID).Error
}
