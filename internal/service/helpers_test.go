package service

import (
	"context"
	"fmt"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/pkg/database"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	contentRepo *repository.ContentRepository
	progress    *ProgressService
	stats       *StatsService
	leaderboard *LeaderboardService
	auth        *AuthService
	users       *UserService
	content     *ContentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbCfg := &config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}
	db, err := database.InitDB(dbCfg, false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Reward:  config.RewardConfig{WordCoins: 1, SentenceCoins: 3},
		Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
	}

	userRepo := repository.NewUserRepository(db)
	contentRepo := repository.NewContentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	dayRepo := repository.NewDayProgressRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	stats := NewStatsService(db, statsRepo, badgeRepo, dayRepo, userRepo, cfg.Reward)
	leaderboard := NewLeaderboardService(statsRepo, nil)

	return &testEnv{
		db:          db,
		cfg:         cfg,
		contentRepo: contentRepo,
		stats:       stats,
		leaderboard: leaderboard,
		progress:    NewProgressService(db, progressRepo, dayRepo, contentRepo, userRepo, stats, leaderboard),
		auth:        NewAuthService(db, userRepo, statsRepo, stats, leaderboard, cfg),
		users:       NewUserService(db, userRepo, statsRepo, NewStorageService(cfg), leaderboard),
		content:     NewContentService(db, contentRepo),
	}
}

func (e *testEnv) register(t *testing.T, name string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@example.com", Password: "password123"}
	if err := e.auth.Register(context.Background(), user); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return user
}

func (e *testEnv) seedWords(t *testing.T, n int) []model.Word {
	t.Helper()
	words := make([]model.Word, n)
	for i := range words {
		words[i] = model.Word{Text: fmt.Sprintf("word-%d", i), Translation: "t", Level: 1, Day: 1}
	}
	if err := e.contentRepo.CreateWords(context.Background(), words); err != nil {
		t.Fatalf("seed words: %v", err)
	}
	all, err := e.contentRepo.ListWords(context.Background(), repository.ContentFilter{})
	if err != nil {
		t.Fatalf("list words: %v", err)
	}
	return all
}

func (e *testEnv) seedSentences(t *testing.T, n int) []model.Sentence {
	t.Helper()
	sentences := make([]model.Sentence, n)
	for i := range sentences {
		sentences[i] = model.Sentence{Text: fmt.Sprintf("sentence-%d", i), Translation: "t", Level: 1, Day: 1}
	}
	if err := e.contentRepo.CreateSentences(context.Background(), sentences); err != nil {
		t.Fatalf("seed sentences: %v", err)
	}
	all, err := e.contentRepo.ListSentences(context.Background(), repository.ContentFilter{})
	if err != nil {
		t.Fatalf("list sentences: %v", err)
	}
	return all
}

func (e *testEnv) count(t *testing.T, m interface{}, userID uint) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
