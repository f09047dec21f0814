package dto

// PublishAcceptedResponse 发布请求已接受响应
type PublishAcceptedResponse struct {
	Success   bool   `json:"success"`
	DatasetID uint   `json:"dataset_id"`
	JobID     string `json:"job_id"`
	JobURL    string `json:"job_url"`
	Status    string `json:"status"`
}

// JobStatusResponse 发布任务状态响应
type JobStatusResponse struct {
	JobID      string   `json:"job_id"`
	DatasetID  uint     `json:"dataset_id"`
	Status     string   `json:"status"`
	Messages   []string `json:"messages,omitempty"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at,omitempty"`
}

// JobEvent 发布任务进度事件
type JobEvent struct {
	Type     string   `json:"type"` // status, violation, finished
	Status   string   `json:"status,omitempty"`
	Message  string   `json:"message,omitempty"`
	Messages []string `json:"messages,omitempty"`
}
