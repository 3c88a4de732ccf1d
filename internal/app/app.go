package app

import (
	"context"
	"errors"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/controller"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/service"
	"kiriboka_backend/pkg/configwatcher"
	"kiriboka_backend/pkg/database"
	"kiriboka_backend/pkg/logger"
	"kiriboka_backend/pkg/monitoring"
	"kiriboka_backend/pkg/security"
	"kiriboka_backend/pkg/tracing"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	shutdownHooks   []func(context.Context) error
	mu              sync.Mutex
}

type repositories struct {
	user        *repository.UserRepository
	content     *repository.ContentRepository
	progress    *repository.ProgressRepository
	dayProgress *repository.DayProgressRepository
	stats       *repository.StatsRepository
	badge       *repository.BadgeRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	content     *service.ContentService
	stats       *service.StatsService
	leaderboard *service.LeaderboardService
	progress    *service.ProgressService
	user        *service.UserService
}

type controllers struct {
	auth        *controller.AuthController
	content     *controller.ContentController
	progress    *controller.ProgressController
	achievement *controller.AchievementController
	user        *controller.UserController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		content:     repository.NewContentRepository(db),
		progress:    repository.NewProgressRepository(db),
		dayProgress: repository.NewDayProgressRepository(db),
		stats:       repository.NewStatsRepository(db),
		badge:       repository.NewBadgeRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.content = service.NewContentService(db, repos.content)
	s.stats = service.NewStatsService(db, repos.stats, repos.badge, repos.dayProgress, repos.user, cfg.Reward)
	s.leaderboard = service.NewLeaderboardService(repos.stats, rdb)
	s.progress = service.NewProgressService(db, repos.progress, repos.dayProgress, repos.content, repos.user, s.stats, s.leaderboard)
	s.auth = service.NewAuthService(db, repos.user, repos.stats, s.stats, s.leaderboard, cfg)
	s.user = service.NewUserService(db, repos.user, repos.stats, s.storage, s.leaderboard)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth, s.stats),
		content:     controller.NewContentController(s.content),
		progress:    controller.NewProgressController(s.progress, s.stats),
		achievement: controller.NewAchievementController(s.stats, s.leaderboard),
		user:        controller.NewUserController(s.user, s.stats),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) initTracing(cfg *config.Config) {
	if !cfg.Tracing.Enabled {
		return
	}
	tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
	if err != nil {
		logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	a.shutdownHooks = append(a.shutdownHooks, tp.Shutdown)
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式默认不迁移，需显式传 -migrate
	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 排行榜缓存不可用时直接查库
		logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	if err := services.user.EnsureAdmin(context.Background(), cfg.Admin); err != nil {
		logger.Log.Error("Failed to ensure admin account", zap.Error(err))
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == "debug" {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.initTracing(cfg)
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 热更新：日志级别和奖励金币
	app.RegisterConfigCallback(logger.SetLevel)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.stats.SetRewards(newCfg.Reward)
		logger.Log.Info("Reward config applied",
			zap.Int("wordCoins", newCfg.Reward.WordCoins),
			zap.Int("sentenceCoins", newCfg.Reward.SentenceCoins),
		)
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		configFile := filepath.Join("configs", "config.yaml")
		if err := configwatcher.WatchConfig(ctx, configFile, a.applyConfig); err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	for _, hook := range a.shutdownHooks {
		if err := hook(shutdownCtx); err != nil {
			logger.Log.Error("Shutdown hook failed", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
	_ = logger.Log.Sync()
}

// Close 释放 -migrate-only 模式下打开的连接
func (a *App) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
