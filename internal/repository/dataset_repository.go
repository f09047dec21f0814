package repository

import (
	"time"

	"github.com/caiwilliamson/octopub/internal/models"

	"gorm.io/gorm"
)

// DatasetRepository 数据集数据访问层
type DatasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository 创建数据集Repository
func NewDatasetRepository(db *gorm.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create 创建数据集(连同文件一起写入)
func (r *DatasetRepository) Create(dataset *models.Dataset) error {
	return r.db.Create(dataset).Error
}

// GetByID 根据ID获取数据集
func (r *DatasetRepository) GetByID(id uint) (*models.Dataset, error) {
	var dataset models.Dataset
	err := r.db.Preload("DatasetFiles").Preload("DatasetFiles.DatasetFileSchema").First(&dataset, id).Error
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

// GetByIDAndUserID 根据ID和用户ID获取数据集
func (r *DatasetRepository) GetByIDAndUserID(id uint, userID uint) (*models.Dataset, error) {
	var dataset models.Dataset
	err := r.db.Preload("DatasetFiles").Preload("DatasetFiles.DatasetFileSchema").
		Where("id = ? AND user_id = ?", id, userID).First(&dataset).Error
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

// ExistsByOwnerAndName 检查同一仓库所有者下数据集名称是否已存在
func (r *DatasetRepository) ExistsByOwnerAndName(repoOwner, name string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Dataset{}).
		Where("repo_owner = ? AND name = ?", repoOwner, name).Count(&count).Error
	return count > 0, err
}

// UpdateStatus 更新数据集状态
func (r *DatasetRepository) UpdateStatus(id uint, status string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if status == models.DatasetStatusPublished {
		updates["published_at"] = time.Now()
	}
	return r.db.Model(&models.Dataset{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateRepoName 更新数据集绑定的仓库名称
func (r *DatasetRepository) UpdateRepoName(id uint, repoName string) error {
	return r.db.Model(&models.Dataset{}).Where("id = ?", id).Update("repo_name", repoName).Error
}

// Delete 删除数据集(文件级联删除)
func (r *DatasetRepository) Delete(id uint) error {
	return r.db.Select("DatasetFiles").Delete(&models.Dataset{ID: id}).Error
}

// ListByUserID 获取用户的数据集列表
func (r *DatasetRepository) ListByUserID(userID uint, offset, limit int) ([]models.Dataset, int64, error) {
	var datasets []models.Dataset
	var total int64

	query := r.db.Model(&models.Dataset{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("DatasetFiles").Order("created_at DESC").Offset(offset).Limit(limit).Find(&datasets).Error
	return datasets, total, err
}

// List 获取所有数据集列表(管理员)
func (r *DatasetRepository) List(offset, limit int) ([]models.Dataset, int64, error) {
	var datasets []models.Dataset
	var total int64

	if err := r.db.Model(&models.Dataset{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Preload("User").Order("created_at DESC").Offset(offset).Limit(limit).Find(&datasets).Error
	return datasets, total, err
}

// AddFiles 向数据集追加文件
func (r *DatasetRepository) AddFiles(files []models.DatasetFile) error {
	return r.db.Create(&files).Error
}

// GetFilesByDatasetID 获取数据集的全部文件(按提交顺序)
func (r *DatasetRepository) GetFilesByDatasetID(datasetID uint) ([]models.DatasetFile, error) {
	var files []models.DatasetFile
	err := r.db.Preload("DatasetFileSchema").
		Where("dataset_id = ?", datasetID).Order("id ASC").Find(&files).Error
	return files, err
}
