package models

import (
	"time"
)

// DatasetFileSchema 文件校验schema模型
// 发布后的不可变校验工件，与作者态的SchemaModel区分
type DatasetFileSchema struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Version     int       `gorm:"default:1" json:"version"`
	URL         string    `gorm:"size:512" json:"url"`          // schema来源地址
	Schema      string    `gorm:"type:text" json:"-"`           // 缓存的schema文档(JSON)
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (DatasetFileSchema) TableName() string {
	return "dataset_file_schemas"
}
