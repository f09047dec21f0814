package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/middleware"
	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/repository"
	"github.com/caiwilliamson/octopub/internal/service"
	"github.com/caiwilliamson/octopub/internal/utils"

	"github.com/gin-gonic/gin"
)

// DatasetHandler 数据集处理器
type DatasetHandler struct {
	datasetService *service.DatasetService
	publishManager *service.PublishManager
	errorRepo      *repository.ErrorRepository
}

// NewDatasetHandler 创建数据集处理器
func NewDatasetHandler(
	datasetService *service.DatasetService,
	publishManager *service.PublishManager,
	errorRepo *repository.ErrorRepository,
) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
		publishManager: publishManager,
		errorRepo:      errorRepo,
	}
}

// CreateDataset 创建数据集并触发异步发布
// 创建成功即返回202，校验和写仓库在后台任务中完成
func (h *DatasetHandler) CreateDataset(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	dataset, err := h.datasetService.CreateDataset(userID, &req)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	job, err := h.publishManager.EnqueuePublish(dataset.ID, userID, req.ChannelID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.AcceptedResponse(c, dto.PublishAcceptedResponse{
		Success:   true,
		DatasetID: dataset.ID,
		JobID:     job.JobID,
		JobURL:    jobURL(job.JobID),
		Status:    job.Status,
	})
}

// AddFiles 向已有数据集追加文件并重新发布
func (h *DatasetHandler) AddFiles(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	datasetID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的数据集ID")
		return
	}

	var req dto.AddFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	dataset, err := h.datasetService.AddFiles(datasetID, userID, req.Files)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	job, err := h.publishManager.EnqueuePublish(dataset.ID, userID, req.ChannelID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.AcceptedResponse(c, dto.PublishAcceptedResponse{
		Success:   true,
		DatasetID: dataset.ID,
		JobID:     job.JobID,
		JobURL:    jobURL(job.JobID),
		Status:    job.Status,
	})
}

// RetryPublish 重新发布失败的数据集
// 每次重试产生新任务，从头重新校验全部文件
func (h *DatasetHandler) RetryPublish(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	datasetID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的数据集ID")
		return
	}

	dataset, err := h.datasetService.GetDataset(datasetID, userID)
	if err != nil {
		utils.NotFound(c, "数据集不存在")
		return
	}

	if dataset.IsPublished() {
		utils.BadRequest(c, "数据集已发布，无需重试")
		return
	}

	channelID := c.Query("channel_id")

	job, err := h.publishManager.EnqueuePublish(dataset.ID, userID, channelID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.AcceptedResponse(c, dto.PublishAcceptedResponse{
		Success:   true,
		DatasetID: dataset.ID,
		JobID:     job.JobID,
		JobURL:    jobURL(job.JobID),
		Status:    job.Status,
	})
}

// GetDataset 获取数据集详情
func (h *DatasetHandler) GetDataset(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	datasetID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的数据集ID")
		return
	}

	dataset, err := h.datasetService.GetDataset(datasetID, userID)
	if err != nil {
		utils.NotFound(c, "数据集不存在")
		return
	}

	utils.SuccessResponse(c, toDatasetResponse(dataset))
}

// ListDatasets 获取当前用户的数据集列表
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	page, perPage := parsePagination(c)

	datasets, total, err := h.datasetService.ListDatasets(userID, page, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	items := make([]*dto.DatasetResponse, 0, len(datasets))
	for i := range datasets {
		items = append(items, toDatasetResponse(&datasets[i]))
	}

	utils.PaginatedResponse(c, items, total, page, perPage)
}

// GetDatasetErrors 获取数据集历史失败记录
func (h *DatasetHandler) GetDatasetErrors(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	datasetID, err := parseIDParam(c, "id")
	if err != nil {
		utils.BadRequest(c, "无效的数据集ID")
		return
	}

	// 确认归属后再查询
	if _, err := h.datasetService.GetDataset(datasetID, userID); err != nil {
		utils.NotFound(c, "数据集不存在")
		return
	}

	records, err := h.errorRepo.ListByDatasetID(datasetID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"success": true,
		"errors":  records,
	})
}

// GetLicences 获取许可协议列表
func (h *DatasetHandler) GetLicences(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"success":  true,
		"licences": models.Licences,
	})
}

// GetFrequencies 获取更新频率列表
func (h *DatasetHandler) GetFrequencies(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"success":     true,
		"frequencies": models.PublicationFrequencies,
	})
}

func toDatasetResponse(dataset *models.Dataset) *dto.DatasetResponse {
	resp := &dto.DatasetResponse{
		ID:            dataset.ID,
		Name:          dataset.Name,
		Description:   dataset.Description,
		PublisherName: dataset.PublisherName,
		PublisherURL:  dataset.PublisherURL,
		Licence:       dataset.Licence,
		Frequency:     dataset.Frequency,
		RepoOwner:     dataset.RepoOwner,
		RepoName:      dataset.RepoName,
		Restricted:    dataset.Restricted,
		Status:        dataset.Status,
		CreatedAt:     dataset.CreatedAt.Format(time.RFC3339),
	}

	for i := range dataset.DatasetFiles {
		f := &dataset.DatasetFiles[i]
		resp.Files = append(resp.Files, dto.DatasetFileResponse{
			ID:          f.ID,
			Title:       f.Title,
			Description: f.Description,
			Filename:    f.Filename,
			FileSize:    f.FileSize,
			TargetPath:  f.TargetPath,
			SchemaID:    f.SchemaID,
		})
	}

	return resp
}

func jobURL(jobID string) string {
	return fmt.Sprintf("/api/jobs/%s", jobID)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
