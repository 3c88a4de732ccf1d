package middleware

import (
	"context"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/util"
	"kiriboka_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserLookup 用于在鉴权时确认账号仍然存在且未被禁用
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

func AuthMiddleware(cfg *config.Config, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		// 被删除或禁用的账号，旧 token 立即失效
		if users != nil {
			user, err := users.FindByID(c.Request.Context(), claims.UserID)
			if err != nil || user.Disabled {
				util.Unauthorized(c)
				c.Abort()
				return
			}
			claims.Role = user.Role
		}

		c.Set("user", claims)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员直接放行
			if user.Role == model.Admin || user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SelfOrAdmin 学生只能访问路径参数 param 指向的自己的数据
func SelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		id, ok := util.ParamUint(c, param)
		if !ok {
			c.Abort()
			return
		}

		if !claims.CanAccessUser(id) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
