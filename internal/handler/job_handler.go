package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/service"
	"github.com/caiwilliamson/octopub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// JobHandler 发布任务处理器
type JobHandler struct {
	publishManager *service.PublishManager
	redisClient    *redis.Client
}

// NewJobHandler 创建发布任务处理器
func NewJobHandler(publishManager *service.PublishManager, redisClient *redis.Client) *JobHandler {
	return &JobHandler{
		publishManager: publishManager,
		redisClient:    redisClient,
	}
}

// GetJobStatus 获取发布任务状态
// 优先读内存中的任务上下文，进程重启后回退到数据库记录
func (h *JobHandler) GetJobStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	if jobCtx, exists := h.publishManager.GetJob(jobID); exists {
		resp := dto.JobStatusResponse{
			JobID:     jobCtx.JobID,
			DatasetID: jobCtx.DatasetID,
			Status:    jobCtx.Status,
			Messages:  jobCtx.Messages,
			StartedAt: jobCtx.StartTime.Format(time.RFC3339),
		}
		if jobCtx.EndTime != nil {
			resp.FinishedAt = jobCtx.EndTime.Format(time.RFC3339)
		}
		utils.SuccessResponse(c, resp)
		return
	}

	job, err := h.publishManager.GetJobRecord(jobID)
	if err != nil {
		utils.NotFound(c, "任务不存在")
		return
	}

	resp := dto.JobStatusResponse{
		JobID:     job.JobID,
		DatasetID: job.DatasetID,
		Status:    job.Status,
		Messages:  job.Messages,
		StartedAt: job.StartedAt.Format(time.RFC3339),
	}
	if job.FinishedAt != nil {
		resp.FinishedAt = job.FinishedAt.Format(time.RFC3339)
	}

	utils.SuccessResponse(c, resp)
}

// GetJobEvents 获取发布任务进度(SSE)
func (h *JobHandler) GetJobEvents(c *gin.Context) {
	jobID := c.Param("job_id")

	eventChan, history, unsubscribe, err := h.publishManager.GetProgress(jobID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}
	defer unsubscribe() // 确保断开连接时取消订阅

	// 设置SSE响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// 发送初始连接成功事件
	initEvent := map[string]interface{}{
		"type":   "connected",
		"job_id": jobID,
	}
	initData, _ := json.Marshal(initEvent)
	fmt.Fprintf(c.Writer, "data: %s\n\n", string(initData))
	c.Writer.Flush()

	// 先发送历史事件
	finishedInHistory := false
	for _, event := range history {
		data, _ := json.Marshal(event)
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(data))
		c.Writer.Flush()
		if event.Type == "finished" {
			finishedInHistory = true
		}
	}

	// 任务已终结，历史即全部事件
	if finishedInHistory {
		return
	}

	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			// 客户端断开连接
			log.Printf("[GetJobEvents] 客户端断开连接: %s", jobID)
			return
		case event, ok := <-eventChan:
			if !ok {
				log.Printf("[GetJobEvents] 进度通道已关闭: %s", jobID)
				return
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(c.Writer, "data: %s\n\n", string(data))
			c.Writer.Flush()

			if event.Type == "finished" {
				return
			}
		}
	}
}

// GetJobProgress 获取发布任务进度（从Redis）
// 用于前端轮询，进程重启后仍可读到最近状态
func (h *JobHandler) GetJobProgress(c *gin.Context) {
	jobID := c.Param("job_id")

	if h.redisClient == nil {
		utils.InternalError(c, "进度存储不可用")
		return
	}

	ctx := context.Background()
	redisKey := "publish_progress:" + jobID

	hashData, err := h.redisClient.HGetAll(ctx, redisKey).Result()
	if err != nil {
		log.Printf("[GetJobProgress] Redis错误: %v", err)
		utils.InternalError(c, "读取进度失败")
		return
	}

	if len(hashData) == 0 {
		// Redis中没有进度，回退到内存
		jobCtx, exists := h.publishManager.GetJob(jobID)
		if !exists {
			utils.NotFound(c, "任务不存在")
			return
		}
		utils.SuccessResponse(c, gin.H{
			"success": true,
			"progress": gin.H{
				"job_id":     jobID,
				"status":     jobCtx.Status,
				"dataset_id": jobCtx.DatasetID,
				"source":     "memory",
			},
		})
		return
	}

	progressData := make(map[string]interface{}, len(hashData)+2)
	for key, val := range hashData {
		progressData[key] = val
	}
	progressData["job_id"] = jobID
	progressData["source"] = "redis"

	utils.SuccessResponse(c, gin.H{
		"success":  true,
		"progress": progressData,
	})
}
