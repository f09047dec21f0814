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

// SchemaHandler 文件schema处理器
type SchemaHandler struct {
	schemaService *service.SchemaService
}

// NewSchemaHandler 创建文件schema处理器
func NewSchemaHandler(schemaService *service.SchemaService) *SchemaHandler {
	return &SchemaHandler{schemaService: schemaService}
}

// RegisterSchema 登记外部schema
func (h *SchemaHandler) RegisterSchema(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	schema, err := h.schemaService.RegisterSchema(userID, &req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "schema已登记", toSchemaResponse(schema))
}

// GetSchema 获取schema详情
func (h *SchemaHandler) GetSchema(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	schemaID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的schema ID")
		return
	}

	schema, err := h.schemaService.GetSchema(schemaID, userID)
	if err != nil {
		utils.NotFound(c, "schema不存在")
		return
	}

	utils.SuccessResponse(c, toSchemaResponse(schema))
}

// ListSchemas 获取当前用户的schema列表
func (h *SchemaHandler) ListSchemas(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	page, perPage := parsePagination(c)

	schemas, total, err := h.schemaService.ListSchemas(userID, page, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	items := make([]*dto.SchemaResponse, 0, len(schemas))
	for i := range schemas {
		items = append(items, toSchemaResponse(&schemas[i]))
	}

	utils.PaginatedResponse(c, items, total, page, perPage)
}

// DeleteSchema 删除schema
// 被数据集文件引用的schema不可删除
func (h *SchemaHandler) DeleteSchema(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	schemaID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的schema ID")
		return
	}

	if err := h.schemaService.DeleteSchema(schemaID, userID); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "schema已删除", gin.H{
		"success": true,
	})
}

func toSchemaResponse(schema *models.DatasetFileSchema) *dto.SchemaResponse {
	return &dto.SchemaResponse{
		ID:          schema.ID,
		Name:        schema.Name,
		Description: schema.Description,
		Version:     schema.Version,
		URL:         schema.URL,
		CreatedAt:   schema.CreatedAt.Format(time.RFC3339),
	}
}
