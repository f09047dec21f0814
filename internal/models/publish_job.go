package models

import (
	"time"
)

// PublishJob 发布任务模型
// 一次发布尝试对应一条记录，终态后不再复用；重试产生新记录
type PublishJob struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	JobID      string     `gorm:"uniqueIndex;size:36;not null" json:"job_id"`
	DatasetID  uint       `gorm:"not null;index" json:"dataset_id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	ChannelID  string     `gorm:"size:100" json:"channel_id"` // 为空表示不推送通知
	Status     string     `gorm:"size:20;default:'pending'" json:"status"` // pending, validating, writing, published, failed
	Messages   StringList `gorm:"type:text" json:"messages"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`

	// 关联
	Dataset Dataset `gorm:"foreignKey:DatasetID" json:"dataset,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定表名
func (PublishJob) TableName() string {
	return "publish_jobs"
}

// IsTerminal 任务是否处于终态
func (j *PublishJob) IsTerminal() bool {
	return j.Status == JobStatusPublished || j.Status == JobStatusFailed
}
