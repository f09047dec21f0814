package handler

import (
	"time"

	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/middleware"
	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/service"
	"github.com/caiwilliamson/octopub/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register 用户注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "注册成功", toUserResponse(user))
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		utils.Unauthorized(c, err.Error())
		return
	}

	utils.SuccessResponse(c, resp)
}

// GetMe 获取当前用户信息
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "未认证")
		return
	}

	user, err := h.authService.GetMe(userID)
	if err != nil {
		utils.NotFound(c, "用户不存在")
		return
	}

	utils.SuccessResponse(c, toUserResponse(user))
}

// UpdateRepoToken 绑定远程仓库账号和令牌
func (h *AuthHandler) UpdateRepoToken(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateRepoTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.UpdateRepoToken(userID, &req); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "仓库令牌已更新", gin.H{
		"repo_owner": req.RepoOwner,
	})
}

func toUserResponse(user *models.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		RepoOwner: user.RepoOwner,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
