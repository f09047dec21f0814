package repository

import (
	"github.com/caiwilliamson/octopub/internal/models"

	"gorm.io/gorm"
)

// SchemaRepository 文件schema数据访问层
type SchemaRepository struct {
	db *gorm.DB
}

// NewSchemaRepository 创建schema Repository
func NewSchemaRepository(db *gorm.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// Create 创建schema
func (r *SchemaRepository) Create(schema *models.DatasetFileSchema) error {
	return r.db.Create(schema).Error
}

// GetByID 根据ID获取schema
func (r *SchemaRepository) GetByID(id uint) (*models.DatasetFileSchema, error) {
	var schema models.DatasetFileSchema
	err := r.db.First(&schema, id).Error
	if err != nil {
		return nil, err
	}
	return &schema, nil
}

// GetByIDAndUserID 根据ID和用户ID获取schema
func (r *SchemaRepository) GetByIDAndUserID(id uint, userID uint) (*models.DatasetFileSchema, error) {
	var schema models.DatasetFileSchema
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&schema).Error
	if err != nil {
		return nil, err
	}
	return &schema, nil
}

// GetByURLAndUserID 根据来源URL和用户ID获取schema
func (r *SchemaRepository) GetByURLAndUserID(url string, userID uint) (*models.DatasetFileSchema, error) {
	var schema models.DatasetFileSchema
	err := r.db.Where("url = ? AND user_id = ?", url, userID).First(&schema).Error
	if err != nil {
		return nil, err
	}
	return &schema, nil
}

// UpdateCachedSchema 更新缓存的schema文档
func (r *SchemaRepository) UpdateCachedSchema(id uint, schemaJSON string) error {
	return r.db.Model(&models.DatasetFileSchema{}).Where("id = ?", id).Update("schema", schemaJSON).Error
}

// Delete 删除schema
func (r *SchemaRepository) Delete(id uint) error {
	return r.db.Delete(&models.DatasetFileSchema{}, id).Error
}

// ListByUserID 获取用户的schema列表
func (r *SchemaRepository) ListByUserID(userID uint, offset, limit int) ([]models.DatasetFileSchema, int64, error) {
	var schemas []models.DatasetFileSchema
	var total int64

	query := r.db.Model(&models.DatasetFileSchema{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&schemas).Error
	return schemas, total, err
}

// CountReferences 统计引用该schema的文件数量
func (r *SchemaRepository) CountReferences(schemaID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.DatasetFile{}).Where("schema_id = ?", schemaID).Count(&count).Error
	return count, err
}
