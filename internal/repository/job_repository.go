package repository

import (
	"time"

	"github.com/caiwilliamson/octopub/internal/models"

	"gorm.io/gorm"
)

// JobRepository 发布任务数据访问层
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository 创建发布任务Repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create 创建发布任务记录
func (r *JobRepository) Create(job *models.PublishJob) error {
	return r.db.Create(job).Error
}

// GetByJobID 根据任务ID获取发布任务
func (r *JobRepository) GetByJobID(jobID string) (*models.PublishJob, error) {
	var job models.PublishJob
	err := r.db.Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus 更新任务状态
func (r *JobRepository) UpdateStatus(jobID string, status string) error {
	updates := map[string]interface{}{
		"status": status,
	}

	if status == models.JobStatusPublished || status == models.JobStatusFailed {
		updates["finished_at"] = time.Now()
	}

	return r.db.Model(&models.PublishJob{}).Where("job_id = ?", jobID).Updates(updates).Error
}

// UpdateStatusWithMessages 更新任务状态和终态消息
func (r *JobRepository) UpdateStatusWithMessages(jobID string, status string, messages []string) error {
	updates := map[string]interface{}{
		"status":   status,
		"messages": models.StringList(messages),
	}

	if status == models.JobStatusPublished || status == models.JobStatusFailed {
		updates["finished_at"] = time.Now()
	}

	return r.db.Model(&models.PublishJob{}).Where("job_id = ?", jobID).Updates(updates).Error
}

// ListByUserID 获取用户的发布任务列表
func (r *JobRepository) ListByUserID(userID uint, offset, limit int) ([]models.PublishJob, int64, error) {
	var jobs []models.PublishJob
	var total int64

	query := r.db.Model(&models.PublishJob{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("started_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	return jobs, total, err
}
