package service

import (
	"context"
	"encoding/json"
	"errors"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	leaderboardCacheKey = "leaderboard:v1"
	leaderboardCacheTTL = 30 * time.Second
)

type LeaderboardEntry struct {
	Rank                  int    `json:"rank"`
	UserID                uint   `json:"userId"`
	Name                  string `json:"name"`
	Avatar                string `json:"avatar,omitempty"`
	TotalCoins            int    `json:"totalCoins"`
	TotalWordsLearned     int    `json:"totalWordsLearned"`
	TotalSentencesLearned int    `json:"totalSentencesLearned"`
}

// LeaderboardCache 缓存完整排行榜的序列化结果
type LeaderboardCache interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, data []byte) error
	Del(ctx context.Context) error
}

// errCacheMiss 缓存未命中
var errCacheMiss = errors.New("leaderboard cache miss")

type redisLeaderboardCache struct {
	rdb *redis.Client
}

func (c redisLeaderboardCache) Get(ctx context.Context) ([]byte, error) {
	val, err := c.rdb.Get(ctx, leaderboardCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errCacheMiss
	}
	return val, err
}

func (c redisLeaderboardCache) Set(ctx context.Context, data []byte) error {
	return c.rdb.Set(ctx, leaderboardCacheKey, data, leaderboardCacheTTL).Err()
}

func (c redisLeaderboardCache) Del(ctx context.Context) error {
	return c.rdb.Del(ctx, leaderboardCacheKey).Err()
}

// LeaderboardService 排行榜只读视图，缓存可选
type LeaderboardService struct {
	StatsRepo *repository.StatsRepository
	Cache     LeaderboardCache
}

// NewLeaderboardService rdb 为 nil 时不使用缓存
func NewLeaderboardService(statsRepo *repository.StatsRepository, rdb *redis.Client) *LeaderboardService {
	s := &LeaderboardService{StatsRepo: statsRepo}
	if rdb != nil {
		s.Cache = redisLeaderboardCache{rdb: rdb}
	}
	return s
}

// Rank 按金币降序、用户 ID 升序返回前 limit 名；limit <= 0 返回全部
func (s *LeaderboardService) Rank(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if s.Cache == nil {
		return s.load(ctx, limit)
	}

	if cached, ok := s.fromCache(ctx); ok {
		return truncate(cached, limit), nil
	}

	entries, err := s.load(ctx, 0)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(entries); err == nil {
		if err := s.Cache.Set(ctx, data); err != nil {
			logger.Log.Warn("failed to cache leaderboard", zap.Error(err))
		}
	}
	return truncate(entries, limit), nil
}

// Invalidate 在奖励、用户名、头像或用户集合变化并提交后调用
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s == nil || s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx); err != nil {
		logger.Log.Warn("failed to invalidate leaderboard cache", zap.Error(err))
	}
}

func (s *LeaderboardService) fromCache(ctx context.Context) ([]LeaderboardEntry, bool) {
	val, err := s.Cache.Get(ctx)
	if err != nil {
		if !errors.Is(err, errCacheMiss) {
			logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var entries []LeaderboardEntry
	if err := json.Unmarshal(val, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *LeaderboardService) load(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.StatsRepo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = LeaderboardEntry{
			Rank:                  i + 1,
			UserID:                row.UserID,
			Name:                  row.Name,
			Avatar:                row.Avatar,
			TotalCoins:            row.TotalCoins,
			TotalWordsLearned:     row.TotalWordsLearned,
			TotalSentencesLearned: row.TotalSentencesLearned,
		}
	}
	return entries, nil
}

func truncate(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
