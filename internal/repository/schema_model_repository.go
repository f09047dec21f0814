package repository

import (
	"github.com/caiwilliamson/octopub/internal/models"

	"gorm.io/gorm"
)

// SchemaModelRepository 作者态schema数据访问层
type SchemaModelRepository struct {
	db *gorm.DB
}

// NewSchemaModelRepository 创建作者态schema Repository
func NewSchemaModelRepository(db *gorm.DB) *SchemaModelRepository {
	return &SchemaModelRepository{db: db}
}

// Create 创建作者态schema(连同字段和约束)
func (r *SchemaModelRepository) Create(model *models.SchemaModel) error {
	return r.db.Create(model).Error
}

// GetByID 根据ID获取作者态schema
func (r *SchemaModelRepository) GetByID(id uint) (*models.SchemaModel, error) {
	var model models.SchemaModel
	err := r.db.Preload("SchemaFields").Preload("SchemaFields.SchemaConstraint").First(&model, id).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// GetByIDAndUserID 根据ID和用户ID获取作者态schema
func (r *SchemaModelRepository) GetByIDAndUserID(id uint, userID uint) (*models.SchemaModel, error) {
	var model models.SchemaModel
	err := r.db.Preload("SchemaFields").Preload("SchemaFields.SchemaConstraint").
		Where("id = ? AND user_id = ?", id, userID).First(&model).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// Update 更新作者态schema
func (r *SchemaModelRepository) Update(model *models.SchemaModel) error {
	return r.db.Save(model).Error
}

// ReplaceFields 替换作者态schema的全部字段
func (r *SchemaModelRepository) ReplaceFields(modelID uint, fields []models.ModelSchemaField) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var old []models.ModelSchemaField
		if err := tx.Where("schema_model_id = ?", modelID).Find(&old).Error; err != nil {
			return err
		}
		for _, f := range old {
			if err := tx.Where("model_schema_field_id = ?", f.ID).Delete(&models.ModelSchemaConstraint{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("schema_model_id = ?", modelID).Delete(&models.ModelSchemaField{}).Error; err != nil {
			return err
		}
		for i := range fields {
			fields[i].SchemaModelID = modelID
		}
		return tx.Create(&fields).Error
	})
}

// Delete 删除作者态schema
func (r *SchemaModelRepository) Delete(id uint) error {
	return r.db.Select("SchemaFields").Delete(&models.SchemaModel{ID: id}).Error
}

// ListByUserID 获取用户的作者态schema列表
func (r *SchemaModelRepository) ListByUserID(userID uint, offset, limit int) ([]models.SchemaModel, int64, error) {
	var schemaModels []models.SchemaModel
	var total int64

	query := r.db.Model(&models.SchemaModel{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("SchemaFields").Preload("SchemaFields.SchemaConstraint").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&schemaModels).Error
	return schemaModels, total, err
}
