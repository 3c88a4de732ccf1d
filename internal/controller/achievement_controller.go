package controller

import (
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/service"
	"kiriboka_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AchievementController 统计、徽章和排行榜
type AchievementController struct {
	StatsService       *service.StatsService
	LeaderboardService *service.LeaderboardService
}

func NewAchievementController(statsService *service.StatsService, leaderboardService *service.LeaderboardService) *AchievementController {
	return &AchievementController{
		StatsService:       statsService,
		LeaderboardService: leaderboardService,
	}
}

// @Summary 获取用户统计
// @Description 获取用户的金币、等级、连续登录天数、学习日和徽章状态
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=service.UserStatsView}
// @Failure 403 {object} util.Response "无权访问"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id}/stats [get]
func (c *AchievementController) GetUserStats(ctx *gin.Context) {
	userID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	stats, err := c.StatsService.GetStats(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// @Summary 徽章目录
// @Description 所有徽章及其解锁条件
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Badge}
// @Router /api/badges [get]
func (c *AchievementController) GetBadges(ctx *gin.Context) {
	util.Success(ctx, model.BadgeCatalog)
}

// @Summary 获取排行榜
// @Description 按总金币降序排列，金币相同时用户ID小的在前；limit=0 返回全部
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param limit query int false "返回数量" default(50)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Failure 400 {object} util.Response "limit 非法"
// @Router /api/leaderboard [get]
func (c *AchievementController) GetLeaderboard(ctx *gin.Context) {
	limit, ok := util.QueryInt(ctx, "limit", util.DefaultLeaderboardLimit)
	if !ok {
		return
	}
	if limit < 0 {
		util.BadRequest(ctx, "limit must not be negative")
		return
	}
	if limit > util.MaxLeaderboardLimit {
		limit = util.MaxLeaderboardLimit
	}

	leaderboard, err := c.LeaderboardService.Rank(ctx.Request.Context(), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, leaderboard)
}
