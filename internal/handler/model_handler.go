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

// ModelHandler 作者态schema处理器
// 草稿可反复编辑，发布后冻结为不可变的文件schema
type ModelHandler struct {
	schemaService *service.SchemaService
}

// NewModelHandler 创建作者态schema处理器
func NewModelHandler(schemaService *service.SchemaService) *ModelHandler {
	return &ModelHandler{schemaService: schemaService}
}

// CreateSchemaModel 创建schema草稿
func (h *ModelHandler) CreateSchemaModel(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateSchemaModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	model, err := h.schemaService.CreateSchemaModel(userID, &req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "schema草稿已创建", toSchemaModelResponse(model))
}

// UpdateSchemaModel 更新schema草稿
func (h *ModelHandler) UpdateSchemaModel(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	modelID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的schema草稿ID")
		return
	}

	var req dto.UpdateSchemaModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	model, err := h.schemaService.UpdateSchemaModel(modelID, userID, &req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "schema草稿已更新", toSchemaModelResponse(model))
}

// GetSchemaModel 获取schema草稿详情
func (h *ModelHandler) GetSchemaModel(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	modelID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的schema草稿ID")
		return
	}

	model, err := h.schemaService.GetSchemaModel(modelID, userID)
	if err != nil {
		utils.NotFound(c, "schema草稿不存在")
		return
	}

	utils.SuccessResponse(c, toSchemaModelResponse(model))
}

// ListSchemaModels 获取当前用户的schema草稿列表
func (h *ModelHandler) ListSchemaModels(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	page, perPage := parsePagination(c)

	schemaModels, total, err := h.schemaService.ListSchemaModels(userID, page, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	items := make([]*dto.SchemaModelResponse, 0, len(schemaModels))
	for i := range schemaModels {
		items = append(items, toSchemaModelResponse(&schemaModels[i]))
	}

	utils.PaginatedResponse(c, items, total, page, perPage)
}

// DeleteSchemaModel 删除schema草稿
func (h *ModelHandler) DeleteSchemaModel(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	modelID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的schema草稿ID")
		return
	}

	if err := h.schemaService.DeleteSchemaModel(modelID, userID); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "schema草稿已删除", gin.H{
		"success": true,
	})
}

// PublishSchemaModel 发布schema草稿
// 字段定义冻结为表格schema文档，之后可在上传时引用
func (h *ModelHandler) PublishSchemaModel(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	modelID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的schema草稿ID")
		return
	}

	schema, err := h.schemaService.PublishSchemaModel(modelID, userID)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "schema已发布", toSchemaResponse(schema))
}

func toSchemaModelResponse(model *models.SchemaModel) *dto.SchemaModelResponse {
	resp := &dto.SchemaModelResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt.Format(time.RFC3339),
	}

	for i := range model.SchemaFields {
		f := &model.SchemaFields[i]
		input := dto.SchemaFieldInput{
			Name:     f.Name,
			Type:     f.Type,
			Required: f.Required,
		}
		if f.SchemaConstraint != nil {
			input.Constraint = &dto.SchemaConstraintInput{
				Name:    f.SchemaConstraint.Name,
				Pattern: f.SchemaConstraint.Pattern,
				Enum:    f.SchemaConstraint.Enum,
			}
		}
		resp.Fields = append(resp.Fields, input)
	}

	return resp
}
