package service

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/repository"
	"github.com/caiwilliamson/octopub/internal/utils"
)

// DatasetService 数据集服务
// 请求线程只创建pending状态的记录，校验和远程写入全部由发布任务异步完成
type DatasetService struct {
	datasetRepo   *repository.DatasetRepository
	userRepo      *repository.UserRepository
	schemaService *SchemaService
}

// NewDatasetService 创建数据集服务
func NewDatasetService(
	datasetRepo *repository.DatasetRepository,
	userRepo *repository.UserRepository,
	schemaService *SchemaService,
) *DatasetService {
	return &DatasetService{
		datasetRepo:   datasetRepo,
		userRepo:      userRepo,
		schemaService: schemaService,
	}
}

// CreateDataset 创建pending状态的数据集及其文件记录
func (s *DatasetService) CreateDataset(userID uint, req *dto.CreateDatasetRequest) (*models.Dataset, error) {
	// 许可证与发布频率限定在固定允许列表内
	if !models.IsValidLicence(req.Licence) {
		return nil, fmt.Errorf("无效的许可证: %s", req.Licence)
	}
	if !models.IsValidFrequency(req.Frequency) {
		return nil, fmt.Errorf("无效的发布频率: %s", req.Frequency)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, errors.New("用户不存在")
	}
	if user.RepoOwner == "" || user.RepoToken == "" {
		return nil, errors.New("用户未绑定远程仓库账号")
	}

	// 同一仓库所有者下数据集名称唯一
	exists, err := s.datasetRepo.ExistsByOwnerAndName(user.RepoOwner, req.Name)
	if err != nil {
		return nil, fmt.Errorf("检查数据集名称失败: %w", err)
	}
	if exists {
		return nil, errors.New("同名数据集已存在")
	}

	files, err := s.buildFiles(userID, req.Files)
	if err != nil {
		return nil, err
	}

	dataset := &models.Dataset{
		Name:          req.Name,
		Description:   req.Description,
		PublisherName: req.PublisherName,
		PublisherURL:  req.PublisherURL,
		Licence:       req.Licence,
		Frequency:     req.Frequency,
		RepoOwner:     user.RepoOwner,
		RepoName:      utils.Slugify(req.Name),
		Restricted:    req.Restricted,
		Status:        models.DatasetStatusPending,
		UserID:        userID,
		DatasetFiles:  files,
	}

	if err := s.datasetRepo.Create(dataset); err != nil {
		return nil, fmt.Errorf("创建数据集失败: %w", err)
	}

	return dataset, nil
}

// AddFiles 向已有数据集追加pending文件
func (s *DatasetService) AddFiles(datasetID uint, userID uint, uploads []dto.FileUpload) (*models.Dataset, error) {
	dataset, err := s.datasetRepo.GetByIDAndUserID(datasetID, userID)
	if err != nil {
		return nil, errors.New("数据集不存在或无权访问")
	}

	files, err := s.buildFiles(userID, uploads)
	if err != nil {
		return nil, err
	}

	for i := range files {
		files[i].DatasetID = dataset.ID
	}

	if err := s.datasetRepo.AddFiles(files); err != nil {
		return nil, fmt.Errorf("追加文件失败: %w", err)
	}

	return s.datasetRepo.GetByID(dataset.ID)
}

// buildFiles 将上传描述转换为文件记录
// 内容显式规范化为UTF-8，目标路径在此时计算
func (s *DatasetService) buildFiles(userID uint, uploads []dto.FileUpload) ([]models.DatasetFile, error) {
	files := make([]models.DatasetFile, 0, len(uploads))

	for _, up := range uploads {
		raw, err := base64.StdEncoding.DecodeString(up.Content)
		if err != nil {
			return nil, fmt.Errorf("文件 '%s' 内容解码失败: %w", up.Title, err)
		}

		content, err := utils.NormalizeUTF8(raw)
		if err != nil {
			return nil, fmt.Errorf("文件 '%s' 编码转换失败: %w", up.Title, err)
		}

		file := models.DatasetFile{
			Title:       up.Title,
			Description: up.Description,
			Filename:    up.Filename,
			FileContent: content,
			FileSize:    len(content),
			TargetPath:  utils.TargetPath(up.Title, up.Filename),
		}

		schemaID, err := s.resolveSchemaRef(userID, &up)
		if err != nil {
			return nil, err
		}
		file.SchemaID = schemaID

		files = append(files, file)
	}

	return files, nil
}

// resolveSchemaRef 解析上传描述中的schema引用
// 无schema引用是正常路径，文件视为自动有效
func (s *DatasetService) resolveSchemaRef(userID uint, up *dto.FileUpload) (*uint, error) {
	if up.SchemaID != nil {
		schema, err := s.schemaService.GetSchema(*up.SchemaID, userID)
		if err != nil {
			return nil, fmt.Errorf("文件 '%s' 引用的schema不存在", up.Title)
		}
		return &schema.ID, nil
	}

	if up.SchemaURL != "" {
		name := up.SchemaName
		if name == "" {
			name = up.Title + " schema"
		}
		schema, err := s.schemaService.FindOrRegisterByURL(userID, up.SchemaURL, name, up.SchemaDescription)
		if err != nil {
			return nil, fmt.Errorf("文件 '%s' 登记schema失败: %w", up.Title, err)
		}
		return &schema.ID, nil
	}

	return nil, nil
}

// GetDataset 获取数据集
func (s *DatasetService) GetDataset(id uint, userID uint) (*models.Dataset, error) {
	return s.datasetRepo.GetByIDAndUserID(id, userID)
}

// ListDatasets 获取用户的数据集列表
func (s *DatasetService) ListDatasets(userID uint, page, perPage int) ([]models.Dataset, int64, error) {
	offset := (page - 1) * perPage
	return s.datasetRepo.ListByUserID(userID, offset, perPage)
}
