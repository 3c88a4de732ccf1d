package app

import (
	"kiriboka_backend/docs"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/middleware"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/pkg/monitoring"
	"kiriboka_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		// 登录单独限流，防止暴力破解密码
		public.POST("/login", security.LoginRateLimiter(cfg.RateLimit), c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.POST("/user/avatar/upload", c.user.UploadAvatar)

	// 内容目录
	rg.GET("/words", c.content.GetWords)
	rg.GET("/sentences", c.content.GetSentences)
	rg.GET("/badges", c.achievement.GetBadges)

	// 学习进度
	rg.POST("/progress", c.progress.RecordProgress)
	rg.POST("/favorite", c.progress.ToggleFavorite)

	// 只能访问自己的数据，管理员除外
	users := rg.Group("/users/:id", middleware.SelfOrAdmin("id"))
	{
		users.GET("/progress", c.progress.ListProgress)
		users.GET("/stats", c.achievement.GetUserStats)
		users.GET("/day-progress", c.progress.GetDayProgress)
	}

	rg.GET("/leaderboard", c.achievement.GetLeaderboard)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg, repos.user), middleware.RoleMiddleware(model.Admin))
	{
		// 用户管理
		admin.GET("/users", c.user.GetUsers)
		admin.POST("/users", c.user.CreateUser)
		admin.GET("/users/:id", c.user.GetUser)
		admin.PUT("/users/:id", c.user.UpdateUser)
		admin.DELETE("/users/:id", c.user.DeleteUser)
		admin.POST("/users/:id/reset-password", c.user.ResetPassword)
		admin.POST("/users/:id/disable", c.user.DisableUser)
		admin.PUT("/users/:id/day", c.user.SetDay)

		// 内容管理
		admin.POST("/words", c.content.CreateWord)
		admin.PUT("/words/:id", c.content.UpdateWord)
		admin.DELETE("/words/:id", c.content.DeleteWord)
		admin.POST("/sentences", c.content.CreateSentence)
		admin.PUT("/sentences/:id", c.content.UpdateSentence)
		admin.DELETE("/sentences/:id", c.content.DeleteSentence)
		admin.POST("/content/import", c.content.ImportContent)
	}
}
