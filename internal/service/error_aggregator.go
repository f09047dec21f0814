package service

import (
	"fmt"

	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/repository"
)

// 失败报告的固定首行
const msgDatasetInvalid = "Dataset files is invalid"

// FileValidation 单个文件的校验结果
type FileValidation struct {
	Title      string
	Violations []string
}

// AggregateViolations 聚合多个文件的校验结果
// 全部为空返回nil；否则首行为固定摘要，随后按提交顺序每个违规文件一行
// 相同输入恒产生逐字节相同的报告
func AggregateViolations(results []FileValidation) []string {
	hasViolation := false
	for _, r := range results {
		if len(r.Violations) > 0 {
			hasViolation = true
			break
		}
	}
	if !hasViolation {
		return nil
	}

	messages := []string{msgDatasetInvalid}
	for _, r := range results {
		if len(r.Violations) > 0 {
			messages = append(messages, fmt.Sprintf(
				"Your file '%s' does not match the schema you provided", r.Title))
		}
	}
	return messages
}

// ErrorAggregator 失败报告聚合与持久化
type ErrorAggregator struct {
	errorRepo *repository.ErrorRepository
}

// NewErrorAggregator 创建失败报告聚合器
func NewErrorAggregator(errorRepo *repository.ErrorRepository) *ErrorAggregator {
	return &ErrorAggregator{errorRepo: errorRepo}
}

// PersistReport 将失败报告持久化为不可变的Error记录
func (a *ErrorAggregator) PersistReport(jobID string, datasetID *uint, messages []string) (*models.Error, error) {
	errRecord := &models.Error{
		JobID:     jobID,
		DatasetID: datasetID,
		Messages:  models.StringList(messages),
	}

	if err := a.errorRepo.Create(errRecord); err != nil {
		return nil, fmt.Errorf("保存失败报告失败: %w", err)
	}

	return errRecord, nil
}
