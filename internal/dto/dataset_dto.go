package dto

// FileUpload 单个上传文件描述
// 三种schema引用方式: 已有schema的ID、schema来源URL(附带名称描述时同时登记新schema)、无schema
type FileUpload struct {
	Title             string `json:"title" binding:"required"`
	Description       string `json:"description"`
	Filename          string `json:"filename"`
	Content           string `json:"content" binding:"required"` // base64编码的文件内容
	SchemaID          *uint  `json:"schema_id"`
	SchemaURL         string `json:"schema_url"`
	SchemaName        string `json:"schema_name"`
	SchemaDescription string `json:"schema_description"`
}

// CreateDatasetRequest 创建数据集请求
type CreateDatasetRequest struct {
	Name          string       `json:"name" binding:"required,max=255"`
	Description   string       `json:"description"`
	PublisherName string       `json:"publisher_name"`
	PublisherURL  string       `json:"publisher_url" binding:"omitempty,url"`
	Licence       string       `json:"licence" binding:"required"`
	Frequency     string       `json:"frequency" binding:"required"`
	Restricted    bool         `json:"restricted"`
	Files         []FileUpload `json:"files" binding:"required,min=1,dive"`
	ChannelID     string       `json:"channel_id"` // 可选，为空则不推送通知
}

// AddFilesRequest 向已有数据集追加文件请求
type AddFilesRequest struct {
	Files     []FileUpload `json:"files" binding:"required,min=1,dive"`
	ChannelID string       `json:"channel_id"`
}

// DatasetResponse 数据集响应
type DatasetResponse struct {
	ID            uint                  `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	PublisherName string                `json:"publisher_name"`
	PublisherURL  string                `json:"publisher_url"`
	Licence       string                `json:"licence"`
	Frequency     string                `json:"frequency"`
	RepoOwner     string                `json:"repo_owner"`
	RepoName      string                `json:"repo_name"`
	Restricted    bool                  `json:"restricted"`
	Status        string                `json:"status"`
	Files         []DatasetFileResponse `json:"files,omitempty"`
	CreatedAt     string                `json:"created_at"`
}

// DatasetFileResponse 数据集文件响应
type DatasetFileResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Filename    string `json:"filename"`
	FileSize    int    `json:"file_size"`
	TargetPath  string `json:"target_path"`
	SchemaID    *uint  `json:"schema_id"`
}

// PaginatedResult 分页结果
type PaginatedResult struct {
	Items   interface{} `json:"items"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}
