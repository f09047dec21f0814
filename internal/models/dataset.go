package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Dataset 数据集模型
// 状态流转: pending -> published / failed，由发布任务独占更新
type Dataset struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Name          string    `gorm:"size:255;not null;uniqueIndex:idx_datasets_owner_name" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	PublisherName string    `gorm:"size:255" json:"publisher_name"`
	PublisherURL  string    `gorm:"size:255" json:"publisher_url"`
	Licence       string    `gorm:"size:50;not null" json:"licence"`
	Frequency     string    `gorm:"size:50;not null" json:"frequency"`
	RepoOwner     string    `gorm:"size:100;not null;uniqueIndex:idx_datasets_owner_name" json:"repo_owner"`
	RepoName      string    `gorm:"size:100" json:"repo_name"`
	Restricted    bool      `gorm:"default:false" json:"restricted"`
	Status        string    `gorm:"size:20;default:'pending'" json:"status"` // pending, published, failed
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联
	User         User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DatasetFiles []DatasetFile `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"dataset_files,omitempty"`
}

// TableName 指定表名
func (Dataset) TableName() string {
	return "datasets"
}

// IsPublished 数据集是否已发布（发布后不可变更）
func (d *Dataset) IsPublished() bool {
	return d.Status == DatasetStatusPublished
}

// StringList 自定义字符串列表类型，以JSON文本存储
type StringList []string

// Scan 实现sql.Scanner接口
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// Value 实现driver.Valuer接口
func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
