package service

import (
	"context"
	"errors"
	"fmt"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/util"
	"kiriboka_backend/pkg/logger"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	DB          *gorm.DB
	UserRepo    *repository.UserRepository
	StatsRepo   *repository.StatsRepository
	Stats       *StatsService
	Leaderboard *LeaderboardService
	Cfg         *config.Config
	Now         func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	statsRepo *repository.StatsRepository,
	stats *StatsService,
	leaderboard *LeaderboardService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		DB:          db,
		UserRepo:    userRepo,
		StatsRepo:   statsRepo,
		Stats:       stats,
		Leaderboard: leaderboard,
		Cfg:         cfg,
		Now:         time.Now,
	}
}

type LoginResult struct {
	Token     string           `json:"token"`
	User      *model.User      `json:"user"`
	Stats     *model.UserStats `json:"stats"`
	NewBadges []model.BadgeID  `json:"newBadges,omitempty"`
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// createUser 在同一事务中创建用户和零值统计
func createUser(ctx context.Context, db *gorm.DB, userRepo *repository.UserRepository, statsRepo *repository.StatsRepository, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = model.Student
	}
	if !user.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", util.ErrValidation, user.Role)
	}

	if _, err := userRepo.FindByEmail(ctx, user.Email); err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := hashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashed

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userRepo.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		return statsRepo.WithTx(tx).Create(ctx, model.NewUserStats(user.ID))
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrEmailRegistered
	}
	return err
}

// Register 注册学生账号
func (s *AuthService) Register(ctx context.Context, user *model.User) error {
	user.Role = model.Student
	if err := createUser(ctx, s.DB, s.UserRepo, s.StatsRepo, user); err != nil {
		return err
	}
	// 新用户以 0 金币出现在排行榜上
	s.Leaderboard.Invalidate(ctx)
	return nil
}

// Login 校验密码、签发 JWT，并记录当天登录（连续登录天数）
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, util.ErrUserDisabled
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	stats, badges, err := s.Stats.RecordLogin(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}

	if err := s.UserRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Log.Warn("failed to update last login", zap.Uint("userID", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	return &LoginResult{
		Token:     token,
		User:      user,
		Stats:     stats,
		NewBadges: badges,
	}, nil
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, err := s.UserRepo.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil
	}
	return user
}
