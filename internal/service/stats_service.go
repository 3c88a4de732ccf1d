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
	"kiriboka_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatsService 维护用户累计统计、连续登录和徽章
type StatsService struct {
	DB        *gorm.DB
	StatsRepo *repository.StatsRepository
	BadgeRepo *repository.BadgeRepository
	DayRepo   *repository.DayProgressRepository
	UserRepo  *repository.UserRepository

	mu      sync.RWMutex
	rewards config.RewardConfig
}

// UserStatsView GET /users/:id/stats 的返回结构
type UserStatsView struct {
	*model.UserStats
	Badges []model.BadgeStatus `json:"badges"`
}

func NewStatsService(
	db *gorm.DB,
	statsRepo *repository.StatsRepository,
	badgeRepo *repository.BadgeRepository,
	dayRepo *repository.DayProgressRepository,
	userRepo *repository.UserRepository,
	rewards config.RewardConfig,
) *StatsService {
	return &StatsService{
		DB:        db,
		StatsRepo: statsRepo,
		BadgeRepo: badgeRepo,
		DayRepo:   dayRepo,
		UserRepo:  userRepo,
		rewards:   rewards,
	}
}

// SetRewards 配置热更新时调用
func (s *StatsService) SetRewards(rewards config.RewardConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards = rewards
}

// CoinsFor 每种内容固定的金币奖励
func (s *StatsService) CoinsFor(kind model.ItemKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case model.KindWord:
		return s.rewards.WordCoins
	case model.KindSentence:
		return s.rewards.SentenceCoins
	}
	return 0
}

// ApplyReward 在调用方事务中累加奖励、重算等级并发放新徽章。
// stats 必须是在同一事务中加锁读取的行。
func (s *StatsService) ApplyReward(ctx context.Context, tx *gorm.DB, stats *model.UserStats, kind model.ItemKind, coins int, now time.Time) ([]model.BadgeID, error) {
	stats.AddLearned(kind, coins)
	if err := s.StatsRepo.WithTx(tx).Save(ctx, stats); err != nil {
		return nil, err
	}
	return s.awardBadges(ctx, tx, stats, now)
}

func (s *StatsService) awardBadges(ctx context.Context, tx *gorm.DB, stats *model.UserStats, now time.Time) ([]model.BadgeID, error) {
	badgeRepo := s.BadgeRepo.WithTx(tx)

	var earned []model.BadgeID
	for _, id := range EvaluateBadges(stats) {
		isNew, err := badgeRepo.Award(ctx, stats.UserID, id, now)
		if err != nil {
			return nil, err
		}
		if isNew {
			earned = append(earned, id)
		}
	}
	return earned, nil
}

// NextStreak 根据上次登录日期计算新的连续登录天数：
// 同一天不变，恰好隔一天 +1，首次登录或中断后重置为 1。
func NextStreak(current int, lastLoginDate, today string) int {
	if lastLoginDate == "" {
		return 1
	}
	days, err := util.DaysBetween(lastLoginDate, today)
	if err != nil {
		return 1
	}
	switch {
	case days == 0:
		if current < 1 {
			return 1
		}
		return current
	case days == 1:
		return current + 1
	case days < 0:
		// 时钟回拨，保持不变
		return current
	default:
		return 1
	}
}

// RecordLogin 更新连续登录天数，返回最新统计
func (s *StatsService) RecordLogin(ctx context.Context, userID uint, now time.Time) (*model.UserStats, []model.BadgeID, error) {
	today := util.FormatDate(now)

	var stats *model.UserStats
	var earned []model.BadgeID
	err := runInTx(ctx, s.DB, func(tx *gorm.DB) error {
		row, err := s.StatsRepo.WithTx(tx).FindOrCreateForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if row.LastLoginDate == today && row.Streak > 0 {
			stats, earned = row, nil
			return nil
		}

		row.Streak = NextStreak(row.Streak, row.LastLoginDate, today)
		if row.LastLoginDate == "" || row.LastLoginDate < today {
			row.LastLoginDate = today
		}
		if err := s.StatsRepo.WithTx(tx).Save(ctx, row); err != nil {
			return err
		}

		badges, err := s.awardBadges(ctx, tx, row, now)
		if err != nil {
			return err
		}
		stats, earned = row, badges
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	monitoring.LoginsTotal.Inc()
	for _, id := range earned {
		monitoring.BadgesEarned.WithLabelValues(string(id)).Inc()
	}
	logger.Log.Debug("login recorded",
		zap.Uint("userID", userID),
		zap.Int("streak", stats.Streak),
	)
	return stats, earned, nil
}

func (s *StatsService) ensureUser(ctx context.Context, userID uint) error {
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	return nil
}

// GetStats 用户统计和徽章状态
func (s *StatsService) GetStats(ctx context.Context, userID uint) (*UserStatsView, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	stats, err := s.StatsRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		stats = model.NewUserStats(userID)
	}

	earned, err := s.BadgeRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserStatsView{
		UserStats: stats,
		Badges:    BadgeStatuses(earned),
	}, nil
}

func (s *StatsService) ListDayProgress(ctx context.Context, userID uint) ([]model.DayProgress, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.DayRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.DayProgress{}
	}
	return rows, nil
}

// SetCurrentDay 管理端推进用户的逻辑学习日；day 为 0 表示 +1。
// 学习日只能前进。
func (s *StatsService) SetCurrentDay(ctx context.Context, userID uint, day int) (*model.UserStats, error) {
	if day < 0 {
		return nil, fmt.Errorf("%w: day must be positive", util.ErrValidation)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	var stats *model.UserStats
	err := runInTx(ctx, s.DB, func(tx *gorm.DB) error {
		row, err := s.StatsRepo.WithTx(tx).FindOrCreateForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		next := day
		if next == 0 {
			next = row.CurrentDay + 1
		}
		maxDay, err := s.DayRepo.WithTx(tx).MaxDay(ctx, userID)
		if err != nil {
			return err
		}
		if next < row.CurrentDay || next < maxDay {
			return fmt.Errorf("%w: day %d is behind current day %d", util.ErrValidation, next, row.CurrentDay)
		}

		row.CurrentDay = next
		if err := s.StatsRepo.WithTx(tx).Save(ctx, row); err != nil {
			return err
		}
		stats = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
