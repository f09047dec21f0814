package models

import (
	"time"
)

// SchemaModel schema的作者态模型，发布前可变
// 发布时冻结为不可变的DatasetFileSchema
type SchemaModel struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	User        User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SchemaFields []ModelSchemaField `gorm:"foreignKey:SchemaModelID;constraint:OnDelete:CASCADE" json:"schema_fields,omitempty"`
}

// TableName 指定表名
func (SchemaModel) TableName() string {
	return "schema_models"
}

// ModelSchemaField schema字段，每个字段最多一个命名约束
type ModelSchemaField struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Type          string    `gorm:"size:50;default:'string'" json:"type"`
	Required      bool      `gorm:"default:false" json:"required"`
	SchemaModelID uint      `gorm:"not null;index" json:"schema_model_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联
	SchemaConstraint *ModelSchemaConstraint `gorm:"foreignKey:ModelSchemaFieldID;constraint:OnDelete:CASCADE" json:"schema_constraint,omitempty"`
}

// TableName 指定表名
func (ModelSchemaField) TableName() string {
	return "model_schema_fields"
}

// ModelSchemaConstraint 字段约束: pattern或枚举取值集合
type ModelSchemaConstraint struct {
	ID                 uint       `gorm:"primarykey" json:"id"`
	Name               string     `gorm:"size:255" json:"name"`
	Pattern            string     `gorm:"size:512" json:"pattern"`
	Enum               StringList `gorm:"type:text" json:"enum"`
	ModelSchemaFieldID uint       `gorm:"not null;index" json:"model_schema_field_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (ModelSchemaConstraint) TableName() string {
	return "model_schema_constraints"
}
