package models

import (
	"time"
)

// Error 发布失败报告
// 每次失败的发布尝试创建一条，创建后不再修改
type Error struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	JobID     string     `gorm:"size:36;index" json:"job_id"`
	DatasetID *uint      `gorm:"index" json:"dataset_id"`
	Messages  StringList `gorm:"type:text" json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName 指定表名
func (Error) TableName() string {
	return "errors"
}
