package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/util"
	"kiriboka_backend/pkg/logger"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 管理端用户维护
type UserService struct {
	DB          *gorm.DB
	UserRepo    *repository.UserRepository
	StatsRepo   *repository.StatsRepository
	Storage     *StorageService
	Leaderboard *LeaderboardService
}

func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	statsRepo *repository.StatsRepository,
	storage *StorageService,
	leaderboard *LeaderboardService,
) *UserService {
	return &UserService{
		DB:          db,
		UserRepo:    userRepo,
		StatsRepo:   statsRepo,
		Storage:     storage,
		Leaderboard: leaderboard,
	}
}

// UserUpdate 为 nil 的字段不修改
type UserUpdate struct {
	Name     *string
	Email    *string
	Role     *model.UserRole
	Password *string
	Disabled *bool
}

func (s *UserService) findUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUsers(ctx context.Context, page, pageSize int, filter repository.UserFilter) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return s.UserRepo.List(ctx, page, pageSize, filter)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	return s.findUser(ctx, id)
}

// CreateUser 管理员创建账号，可以指定角色
func (s *UserService) CreateUser(ctx context.Context, user *model.User) error {
	if err := createUser(ctx, s.DB, s.UserRepo, s.StatsRepo, user); err != nil {
		return err
	}
	s.Leaderboard.Invalidate(ctx)
	return nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint, upd UserUpdate) (*model.User, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if email != user.Email {
			if _, err := s.UserRepo.FindByEmail(ctx, email); err == nil {
				return nil, util.ErrEmailRegistered
			}
		}
		user.Email = email
	}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", util.ErrValidation, *upd.Role)
		}
		user.Role = *upd.Role
	}
	if upd.Disabled != nil {
		user.Disabled = *upd.Disabled
	}
	if upd.Password != nil && *upd.Password != "" {
		hashed, err := hashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.UserRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	s.Leaderboard.Invalidate(ctx)
	return user, nil
}

// ResetPassword 重置为随机临时密码并返回
func (s *UserService) ResetPassword(ctx context.Context, id uint) (string, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return "", err
	}

	tempPassword := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	hashed, err := hashPassword(tempPassword)
	if err != nil {
		return "", err
	}
	user.Password = hashed

	if err := s.UserRepo.Update(ctx, user); err != nil {
		return "", err
	}
	return tempPassword, nil
}

// DeleteUser 删除用户，级联删除学习记录、每日汇总、统计和徽章
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.findUser(ctx, id); err != nil {
		return err
	}

	err := runInTx(ctx, s.DB, func(tx *gorm.DB) error {
		return s.UserRepo.WithTx(tx).DeleteCascade(ctx, id)
	})
	if err != nil {
		return err
	}

	s.Leaderboard.Invalidate(ctx)
	logger.Log.Info("user deleted", zap.Uint("userID", id))
	return nil
}

func (s *UserService) DisableUser(ctx context.Context, id uint, disable bool) error {
	_, err := s.UpdateUser(ctx, id, UserUpdate{Disabled: &disable})
	return err
}

// EnsureAdmin 没有任何管理员时按配置创建一个
func (s *UserService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&model.User{}).Where("role = ?", model.Admin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	admin := &model.User{Name: name, Email: cfg.Email, Password: cfg.Password, Role: model.Admin}
	if err := s.CreateUser(ctx, admin); err != nil && !errors.Is(err, util.ErrEmailRegistered) {
		return err
	}
	logger.Log.Info("default admin ensured", zap.String("email", cfg.Email))
	return nil
}

// UploadAvatar 校验图片类型后写入存储并更新头像地址
func (s *UserService) UploadAvatar(ctx context.Context, userID uint, filename string, file io.ReadSeeker, size int64) (string, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return "", err
	}

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.Storage.Upload(ctx, objectName, file, size, mimeType)
	if err != nil {
		return "", err
	}

	user.Avatar = url
	if err := s.UserRepo.Update(ctx, user); err != nil {
		return "", err
	}
	s.Leaderboard.Invalidate(ctx)
	return url, nil
}
