package models

// 数据集状态
const (
	DatasetStatusPending   = "pending"
	DatasetStatusPublished = "published"
	DatasetStatusFailed    = "failed"
)

// 发布任务状态
const (
	JobStatusPending    = "pending"
	JobStatusValidating = "validating"
	JobStatusWriting    = "writing"
	JobStatusPublished  = "published"
	JobStatusFailed     = "failed"
)

// Licences 允许的数据许可证列表
var Licences = []string{
	"CC-BY-4.0",
	"CC-BY-SA-4.0",
	"CC0-1.0",
	"OGL-UK-3.0",
	"ODC-BY-1.0",
	"ODC-PDDL-1.0",
}

// PublicationFrequencies 允许的发布频率列表
var PublicationFrequencies = []string{
	"One-off",
	"Annual",
	"Every working day",
	"Daily",
	"Monthly",
	"Every minute",
	"Every quarter",
	"Half yearly",
	"Weekly",
}

// IsValidLicence 检查许可证是否在允许列表中
func IsValidLicence(licence string) bool {
	for _, l := range Licences {
		if l == licence {
			return true
		}
	}
	return false
}

// IsValidFrequency 检查发布频率是否在允许列表中
func IsValidFrequency(frequency string) bool {
	for _, f := range PublicationFrequencies {
		if f == frequency {
			return true
		}
	}
	return false
}
