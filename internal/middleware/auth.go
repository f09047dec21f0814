package middleware

import (
	"strings"

	"github.com/caiwilliamson/octopub/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	contextUserIDKey   = "user_id"
	contextUsernameKey = "username"
	contextIsAdminKey  = "is_admin"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "缺少认证信息")
			c.Abort()
			return
		}

		// 格式: Bearer <token>
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Unauthorized(c, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			utils.Unauthorized(c, "无效的Token")
			c.Abort()
			return
		}

		c.Set(contextUserIDKey, claims.UserID)
		c.Set(contextUsernameKey, claims.Username)
		c.Set(contextIsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// GetUserID 从上下文获取当前用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	val, exists := c.Get(contextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := val.(uint)
	return userID, ok
}

// IsAdmin 当前用户是否为管理员
func IsAdmin(c *gin.Context) bool {
	val, exists := c.Get(contextIsAdminKey)
	if !exists {
		return false
	}
	isAdmin, _ := val.(bool)
	return isAdmin
}
