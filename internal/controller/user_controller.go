package controller

import (
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/service"
	"kiriboka_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户相关的HTTP请求
type UserController struct {
	UserService  *service.UserService
	StatsService *service.StatsService
}

// NewUserController 创建一个新的用户控制器实例
func NewUserController(userService *service.UserService, statsService *service.StatsService) *UserController {
	return &UserController{
		UserService:  userService,
		StatsService: statsService,
	}
}

// CreateUserRequest 管理员创建用户
// swagger:model CreateUserRequest
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=student admin"`
}

// UpdateUserRequest 定义用户更新请求结构，未传的字段不修改
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role" binding:"omitempty,oneof=student admin"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Disabled *bool   `json:"disabled"`
}

// DisableUserRequest 不传 disabled 时默认禁用
// swagger:model DisableUserRequest
type DisableUserRequest struct {
	Disabled *bool `json:"disabled"`
}

// SetDayRequest day 为 0 表示推进一天
// swagger:model SetDayRequest
type SetDayRequest struct {
	Day int `json:"day" binding:"min=0"`
}

// GetUsers godoc
// @Summary 获取用户列表
// @Description 获取用户列表，支持分页和筛选
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   pageSize query int false "每页条数" default(10)
// @Param   role query string false "角色筛选"
// @Param   status query string false "状态筛选 active/disabled"
// @Param   search query string false "搜索关键词"
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/admin/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("pageSize", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	filter := repository.UserFilter{
		Role:   ctx.Query("role"),
		Search: ctx.Query("search"),
	}
	switch ctx.Query("status") {
	case "active":
		disabled := false
		filter.Disabled = &disabled
	case "disabled":
		disabled := true
		filter.Disabled = &disabled
	}

	users, total, err := c.UserService.GetUsers(ctx.Request.Context(), page, pageSize, filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"items": users,
		"total": total,
		"page":  page,
		"pages": (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetUser godoc
// @Summary 获取单个用户信息
// @Description 根据ID获取用户详细信息
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	user, err := c.UserService.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, user)
}

// CreateUser godoc
// @Summary 创建用户
// @Description 管理员创建学生或管理员账号
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateUserRequest true "用户信息"
// @Success 201 {object} util.Response{data=model.User} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/admin/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.UserRole(req.Role),
	}
	if err := c.UserService.CreateUser(ctx.Request.Context(), user); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, user)
}

// UpdateUser godoc
// @Summary 更新用户信息
// @Description 更新用户的详细信息
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body UpdateUserRequest true "用户更新信息"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "用户不存在"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/admin/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	upd := service.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Disabled: req.Disabled,
	}
	if req.Role != nil {
		role := model.UserRole(*req.Role)
		upd.Role = &role
	}

	user, err := c.UserService.UpdateUser(ctx.Request.Context(), id, upd)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, user)
}

// ResetPassword godoc
// @Summary 重置用户密码
// @Description 生成临时密码并返回
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/reset-password [post]
func (c *UserController) ResetPassword(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	password, err := c.UserService.ResetPassword(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"tempPassword": password})
}

// DeleteUser godoc
// @Summary 删除用户
// @Description 删除用户及其学习记录、每日进度、统计和徽章
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "不能删除自己"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	if claims := util.GetUserFromContext(ctx); claims != nil && claims.UserID == id {
		util.BadRequest(ctx, "不能删除当前登录的账号")
		return
	}

	if err := c.UserService.DeleteUser(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// DisableUser godoc
// @Summary 禁用/启用用户
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body DisableUserRequest false "disabled 默认 true"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/disable [post]
func (c *UserController) DisableUser(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	var req DisableUserRequest
	// 允许空请求体
	_ = ctx.ShouldBindJSON(&req)
	disabled := true
	if req.Disabled != nil {
		disabled = *req.Disabled
	}

	if err := c.UserService.DisableUser(ctx.Request.Context(), id, disabled); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"disabled": disabled})
}

// SetDay godoc
// @Summary 设置用户学习日
// @Description 推进用户的逻辑学习日，day 为 0 时加一；学习日不能后退
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body SetDayRequest true "学习日"
// @Success 200 {object} util.Response{data=model.UserStats} "成功"
// @Failure 400 {object} util.Response "学习日非法"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/day [put]
func (c *UserController) SetDay(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	var req SetDayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	stats, err := c.StatsService.SetCurrentDay(ctx.Request.Context(), id, req.Day)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// UploadAvatar godoc
// @Summary 上传头像
// @Tags 用户
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "头像图片"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/user/avatar/upload [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "请选择要上传的文件")
		return
	}
	if header.Size > 2<<20 {
		util.BadRequest(ctx, "头像不能超过 2MB")
		return
	}

	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.UserService.UploadAvatar(ctx.Request.Context(), claims.UserID, header.Filename, file, header.Size)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}
