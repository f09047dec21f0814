package handler

import (
	"github.com/caiwilliamson/octopub/internal/repository"
	"github.com/caiwilliamson/octopub/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员处理器
type AdminHandler struct {
	userRepo    *repository.UserRepository
	datasetRepo *repository.DatasetRepository
	errorRepo   *repository.ErrorRepository
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(
	userRepo *repository.UserRepository,
	datasetRepo *repository.DatasetRepository,
	errorRepo *repository.ErrorRepository,
) *AdminHandler {
	return &AdminHandler{
		userRepo:    userRepo,
		datasetRepo: datasetRepo,
		errorRepo:   errorRepo,
	}
}

// ListUsers 获取所有用户
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, perPage := parsePagination(c)

	offset := (page - 1) * perPage
	users, total, err := h.userRepo.List(offset, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, users, total, page, perPage)
}

// SetUserActive 启用/禁用用户
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的用户ID")
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.userRepo.GetByID(id)
	if err != nil {
		utils.NotFound(c, "用户不存在")
		return
	}

	user.IsActive = req.IsActive
	if err := h.userRepo.Update(user); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "用户状态已更新", gin.H{"success": true})
}

// DeleteUser 删除用户
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的用户ID")
		return
	}

	if err := h.userRepo.Delete(id); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "用户已删除", gin.H{"success": true})
}

// ListAllDatasets 获取所有数据集
func (h *AdminHandler) ListAllDatasets(c *gin.Context) {
	page, perPage := parsePagination(c)

	offset := (page - 1) * perPage
	datasets, total, err := h.datasetRepo.List(offset, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, datasets, total, page, perPage)
}

// DeleteDataset 删除数据集记录
// 只删除本地记录，远程仓库不受影响
func (h *AdminHandler) DeleteDataset(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的数据集ID")
		return
	}

	if err := h.datasetRepo.Delete(id); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "数据集已删除", gin.H{"success": true})
}

// GetStats 获取平台统计
func (h *AdminHandler) GetStats(c *gin.Context) {
	_, userTotal, err := h.userRepo.List(0, 1)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	_, datasetTotal, err := h.datasetRepo.List(0, 1)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	errorTotal, err := h.errorRepo.Count()
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"success":  true,
		"users":    userTotal,
		"datasets": datasetTotal,
		"errors":   errorTotal,
	})
}
