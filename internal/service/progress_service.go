package service

import (
	"context"
	"errors"
	"fmt"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/util"
	"kiriboka_backend/pkg/logger"
	"kiriboka_backend/pkg/monitoring"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressService 学习记录（Progress Ledger）和每日汇总
type ProgressService struct {
	DB           *gorm.DB
	ProgressRepo *repository.ProgressRepository
	DayRepo      *repository.DayProgressRepository
	ContentRepo  *repository.ContentRepository
	UserRepo     *repository.UserRepository
	Stats        *StatsService
	Leaderboard  *LeaderboardService
	Now          func() time.Time
}

func NewProgressService(
	db *gorm.DB,
	progressRepo *repository.ProgressRepository,
	dayRepo *repository.DayProgressRepository,
	contentRepo *repository.ContentRepository,
	userRepo *repository.UserRepository,
	stats *StatsService,
	leaderboard *LeaderboardService,
) *ProgressService {
	return &ProgressService{
		DB:           db,
		ProgressRepo: progressRepo,
		DayRepo:      dayRepo,
		ContentRepo:  contentRepo,
		UserRepo:     userRepo,
		Stats:        stats,
		Leaderboard:  leaderboard,
		Now:          time.Now,
	}
}

// LearnResult RecordLearned 的结果；Rewarded 只在首次学会时为 true
type LearnResult struct {
	Record    *model.ProgressRecord `json:"record"`
	Rewarded  bool                  `json:"rewarded"`
	Coins     int                   `json:"coins"`
	Stats     *model.UserStats      `json:"stats,omitempty"`
	NewBadges []model.BadgeID       `json:"newBadges"`
}

func (s *ProgressService) validate(ctx context.Context, userID uint, ref model.ItemRef) error {
	if !ref.Valid() {
		return fmt.Errorf("%w: %v", util.ErrValidation, model.ErrInvalidItemRef)
	}
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	ok, err := s.ContentRepo.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %d", util.ErrItemNotFound, ref.Kind, ref.ID)
	}
	return nil
}

// RecordLearned 标记内容为已学会。只有第一次从未学会变为学会时才发放金币、
// 更新当日汇总和累计统计；重复调用不改变任何状态。
// 记录、当日汇总和统计在同一事务内提交。
func (s *ProgressService) RecordLearned(ctx context.Context, userID uint, ref model.ItemRef) (*LearnResult, error) {
	if err := s.validate(ctx, userID, ref); err != nil {
		return nil, err
	}

	now := s.Now()
	var result *LearnResult
	err := runInTx(ctx, s.DB, func(tx *gorm.DB) error {
		record, err := s.ProgressRepo.WithTx(tx).FindOrCreateForUpdate(ctx, userID, ref)
		if err != nil {
			return err
		}
		if record.IsLearned {
			result = &LearnResult{Record: record, NewBadges: []model.BadgeID{}}
			return nil
		}

		learnedAt := now
		record.IsLearned = true
		record.LearnedAt = &learnedAt
		if err := s.ProgressRepo.WithTx(tx).Save(ctx, record); err != nil {
			return err
		}

		stats, err := s.Stats.StatsRepo.WithTx(tx).FindOrCreateForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		coins := s.Stats.CoinsFor(ref.Kind)
		if err := s.recordActivity(ctx, tx, userID, stats.CurrentDay, ref.Kind, coins, now); err != nil {
			return err
		}

		badges, err := s.Stats.ApplyReward(ctx, tx, stats, ref.Kind, coins, now)
		if err != nil {
			return err
		}
		if badges == nil {
			badges = []model.BadgeID{}
		}

		result = &LearnResult{
			Record:    record,
			Rewarded:  true,
			Coins:     coins,
			Stats:     stats,
			NewBadges: badges,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Rewarded {
		s.Leaderboard.Invalidate(ctx)
		monitoring.ItemsLearned.WithLabelValues(string(ref.Kind)).Inc()
		monitoring.CoinsAwarded.WithLabelValues(string(ref.Kind)).Add(float64(result.Coins))
		for _, id := range result.NewBadges {
			monitoring.BadgesEarned.WithLabelValues(string(id)).Inc()
		}
		logger.Log.Info("item learned",
			zap.Uint("userID", userID),
			zap.String("kind", string(ref.Kind)),
			zap.Uint("itemID", ref.ID),
			zap.Int("coins", result.Coins),
			zap.Int("totalCoins", result.Stats.TotalCoins),
		)
	}
	return result, nil
}

// recordActivity 当日汇总：找到或创建 (user, day) 行并累加
func (s *ProgressService) recordActivity(ctx context.Context, tx *gorm.DB, userID uint, day int, kind model.ItemKind, coins int, now time.Time) error {
	if day < 1 {
		day = 1
	}
	row, err := s.DayRepo.WithTx(tx).FindOrCreateForUpdate(ctx, userID, day)
	if err != nil {
		return err
	}

	switch kind {
	case model.KindWord:
		row.WordsLearned++
	case model.KindSentence:
		row.SentencesLearned++
	}
	row.CoinsEarned += coins
	row.Date = util.FormatDate(now)
	return s.DayRepo.WithTx(tx).Save(ctx, row)
}

// ToggleFavorite 切换单词收藏状态，不影响金币和学习状态
func (s *ProgressService) ToggleFavorite(ctx context.Context, userID, wordID uint) (*model.ProgressRecord, error) {
	ref := model.WordRef(wordID)
	if err := s.validate(ctx, userID, ref); err != nil {
		return nil, err
	}

	var record *model.ProgressRecord
	err := runInTx(ctx, s.DB, func(tx *gorm.DB) error {
		row, err := s.ProgressRepo.WithTx(tx).FindOrCreateForUpdate(ctx, userID, ref)
		if err != nil {
			return err
		}
		row.IsFavorite = !row.IsFavorite
		if err := s.ProgressRepo.WithTx(tx).Save(ctx, row); err != nil {
			return err
		}
		record = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListProgress kind 为空时返回全部记录
func (s *ProgressService) ListProgress(ctx context.Context, userID uint, kind string) ([]model.ProgressRecord, error) {
	switch model.ItemKind(kind) {
	case "", model.KindWord, model.KindSentence:
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", util.ErrValidation, strconv.Quote(kind))
	}
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	records, err := s.ProgressRepo.ListByUser(ctx, userID, model.ItemKind(kind))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.ProgressRecord{}
	}
	return records, nil
}
