package models

import (
	"time"
)

// DatasetFile 数据集文件模型
// 文件内容以UTF-8规范化后的字节存储，目标路径在创建时计算
type DatasetFile struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Filename    string    `gorm:"size:255" json:"filename"`
	FileContent []byte    `gorm:"type:blob" json:"-"`
	FileSize    int       `json:"file_size"`
	TargetPath  string    `gorm:"size:255" json:"target_path"` // 仓库中的目标路径，如 data/my-file.csv
	DatasetID   uint      `gorm:"not null;index" json:"dataset_id"`
	SchemaID    *uint     `gorm:"index" json:"schema_id"` // 弱引用，schema可被多个文件共享
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	Dataset           Dataset            `gorm:"foreignKey:DatasetID" json:"-"`
	DatasetFileSchema *DatasetFileSchema `gorm:"foreignKey:SchemaID" json:"dataset_file_schema,omitempty"`
}

// TableName 指定表名
func (DatasetFile) TableName() string {
	return "dataset_files"
}

// HasSchema 文件是否声明了校验schema
func (f *DatasetFile) HasSchema() bool {
	return f.SchemaID != nil
}
