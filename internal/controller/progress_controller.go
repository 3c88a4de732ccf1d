package controller

import (
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/service"
	"kiriboka_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
	StatsService    *service.StatsService
}

func NewProgressController(progressService *service.ProgressService, statsService *service.StatsService) *ProgressController {
	return &ProgressController{
		ProgressService: progressService,
		StatsService:    statsService,
	}
}

// ProgressRequest wordId 和 sentenceId 必须且只能传一个
// swagger:model ProgressRequest
type ProgressRequest struct {
	UserID     uint  `json:"userId"`
	WordID     *uint `json:"wordId"`
	SentenceID *uint `json:"sentenceId"`
	IsLearned  *bool `json:"isLearned" binding:"required"`
}

// FavoriteRequest 收藏/取消收藏单词
// swagger:model FavoriteRequest
type FavoriteRequest struct {
	UserID uint `json:"userId"`
	WordID uint `json:"wordId" binding:"required"`
}

// targetUser 请求体中的 userId 为空时默认当前用户
func targetUser(ctx *gin.Context, userID uint) (uint, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	if userID == 0 {
		return claims.UserID, true
	}
	if !claims.CanAccessUser(userID) {
		util.Forbidden(ctx)
		return 0, false
	}
	return userID, true
}

// RecordProgress godoc
// @Summary 标记已学会
// @Description 标记单词或句子为已学会；只有第一次学会时发放金币、更新当日进度并评估徽章
// @Tags 学习进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body ProgressRequest true "学习记录"
// @Success 200 {object} util.Response{data=service.LearnResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "无权操作其他用户"
// @Failure 404 {object} util.Response "用户或内容不存在"
// @Failure 409 {object} util.Response "并发冲突，请重试"
// @Router /api/progress [post]
func (c *ProgressController) RecordProgress(ctx *gin.Context) {
	var req ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	// 已学会不可撤销
	if !*req.IsLearned {
		util.BadRequest(ctx, "isLearned must be true")
		return
	}

	ref, err := model.NewItemRef(req.WordID, req.SentenceID)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	userID, ok := targetUser(ctx, req.UserID)
	if !ok {
		return
	}

	result, err := c.ProgressService.RecordLearned(ctx.Request.Context(), userID, ref)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// ToggleFavorite godoc
// @Summary 切换单词收藏
// @Description 切换单词的收藏状态，不影响金币和学习状态
// @Tags 学习进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body FavoriteRequest true "收藏请求"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "单词不存在"
// @Router /api/favorite [post]
func (c *ProgressController) ToggleFavorite(ctx *gin.Context) {
	var req FavoriteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	userID, ok := targetUser(ctx, req.UserID)
	if !ok {
		return
	}

	record, err := c.ProgressService.ToggleFavorite(ctx.Request.Context(), userID, req.WordID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"isFavorite": record.IsFavorite,
		"record":     record,
	})
}

// ListProgress godoc
// @Summary 用户学习记录
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   kind query string false "word 或 sentence"
// @Success 200 {object} util.Response{data=[]model.ProgressRecord} "成功"
// @Failure 403 {object} util.Response "无权访问"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id}/progress [get]
func (c *ProgressController) ListProgress(ctx *gin.Context) {
	userID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	records, err := c.ProgressService.ListProgress(ctx.Request.Context(), userID, ctx.Query("kind"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, records)
}

// GetDayProgress godoc
// @Summary 每日学习进度
// @Description 按学习日升序返回每日学会的单词、句子和金币
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=[]model.DayProgress} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id}/day-progress [get]
func (c *ProgressController) GetDayProgress(ctx *gin.Context) {
	userID, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	rows, err := c.StatsService.ListDayProgress(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, rows)
}
