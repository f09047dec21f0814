package repository

import (
	"github.com/caiwilliamson/octopub/internal/models"

	"gorm.io/gorm"
)

// ErrorRepository 失败报告数据访问层
type ErrorRepository struct {
	db *gorm.DB
}

// NewErrorRepository 创建失败报告Repository
func NewErrorRepository(db *gorm.DB) *ErrorRepository {
	return &ErrorRepository{db: db}
}

// Create 创建失败报告(创建后不再修改)
func (r *ErrorRepository) Create(errRecord *models.Error) error {
	return r.db.Create(errRecord).Error
}

// GetByJobID 根据任务ID获取失败报告
func (r *ErrorRepository) GetByJobID(jobID string) (*models.Error, error) {
	var errRecord models.Error
	err := r.db.Where("job_id = ?", jobID).First(&errRecord).Error
	if err != nil {
		return nil, err
	}
	return &errRecord, nil
}

// ListByDatasetID 获取数据集的全部失败报告
func (r *ErrorRepository) ListByDatasetID(datasetID uint) ([]models.Error, error) {
	var errRecords []models.Error
	err := r.db.Where("dataset_id = ?", datasetID).Order("created_at DESC").Find(&errRecords).Error
	return errRecords, err
}

// Count 统计失败报告数量
func (r *ErrorRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Error{}).Count(&count).Error
	return count, err
}
