package repository

import (
	"context"
	"kiriboka_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

func (r *StatsRepository) WithTx(tx *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: tx}
}

// LeaderboardRow 排行榜查询结果
type LeaderboardRow struct {
	UserID                uint
	Name                  string
	Avatar                string
	TotalCoins            int
	TotalWordsLearned     int
	TotalSentencesLearned int
}

func (r *StatsRepository) Create(ctx context.Context, stats *model.UserStats) error {
	return r.DB.WithContext(ctx).Create(stats).Error
}

func (r *StatsRepository) FindByUserID(ctx context.Context, userID uint) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	return &stats, err
}

// FindOrCreateForUpdate 老用户可能没有统计行，这里补建后加锁读取
func (r *StatsRepository) FindOrCreateForUpdate(ctx context.Context, userID uint) (*model.UserStats, error) {
	db := r.DB.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(model.NewUserStats(userID)).Error; err != nil {
		return nil, err
	}

	var stats model.UserStats
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *StatsRepository) Save(ctx context.Context, stats *model.UserStats) error {
	return r.DB.WithContext(ctx).Save(stats).Error
}

// Leaderboard 按金币降序、用户 ID 升序排名；limit <= 0 返回全部
func (r *StatsRepository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	query := r.DB.WithContext(ctx).Table("user_stats").
		Select("user_stats.user_id, users.name, users.avatar, user_stats.total_coins, user_stats.total_words_learned, user_stats.total_sentences_learned").
		Joins("JOIN users ON users.id = user_stats.user_id AND users.deleted_at IS NULL").
		Order("user_stats.total_coins DESC").
		Order("user_stats.user_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Scan(&rows).Error
	return rows, err
}
