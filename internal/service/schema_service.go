package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/repository"
)

// SchemaService 文件schema服务
// 管理schema登记、按URL拉取schema文档、作者态schema冻结发布
type SchemaService struct {
	schemaRepo      *repository.SchemaRepository
	schemaModelRepo *repository.SchemaModelRepository
	client          *http.Client
}

// NewSchemaService 创建schema服务
func NewSchemaService(
	schemaRepo *repository.SchemaRepository,
	schemaModelRepo *repository.SchemaModelRepository,
	fetchTimeout time.Duration,
) *SchemaService {
	return &SchemaService{
		schemaRepo:      schemaRepo,
		schemaModelRepo: schemaModelRepo,
		client: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// RegisterSchema 登记一个以URL为来源的schema
func (s *SchemaService) RegisterSchema(userID uint, req *dto.CreateSchemaRequest) (*models.DatasetFileSchema, error) {
	schema := &models.DatasetFileSchema{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		UserID:      userID,
	}

	if err := s.schemaRepo.Create(schema); err != nil {
		return nil, fmt.Errorf("登记schema失败: %w", err)
	}

	return schema, nil
}

// FindOrRegisterByURL 按来源URL查找schema，不存在则登记新schema
func (s *SchemaService) FindOrRegisterByURL(userID uint, url, name, description string) (*models.DatasetFileSchema, error) {
	schema, err := s.schemaRepo.GetByURLAndUserID(url, userID)
	if err == nil {
		return schema, nil
	}

	return s.RegisterSchema(userID, &dto.CreateSchemaRequest{
		Name:        name,
		Description: description,
		URL:         url,
	})
}

// GetSchema 获取schema
func (s *SchemaService) GetSchema(id uint, userID uint) (*models.DatasetFileSchema, error) {
	return s.schemaRepo.GetByIDAndUserID(id, userID)
}

// ListSchemas 获取用户的schema列表
func (s *SchemaService) ListSchemas(userID uint, page, perPage int) ([]models.DatasetFileSchema, int64, error) {
	offset := (page - 1) * perPage
	return s.schemaRepo.ListByUserID(userID, offset, perPage)
}

// DeleteSchema 删除schema(仍被文件引用时拒绝)
func (s *SchemaService) DeleteSchema(id uint, userID uint) error {
	schema, err := s.schemaRepo.GetByIDAndUserID(id, userID)
	if err != nil {
		return errors.New("schema不存在或无权访问")
	}

	refs, err := s.schemaRepo.CountReferences(schema.ID)
	if err != nil {
		return fmt.Errorf("检查schema引用失败: %w", err)
	}
	if refs > 0 {
		return errors.New("schema仍被数据集文件引用，无法删除")
	}

	return s.schemaRepo.Delete(schema.ID)
}

// ResolveSchema 解析schema为可执行的校验描述
// 优先使用缓存的schema文档；缓存为空时按URL拉取并回填缓存
// 来源不可达或文档格式错误以error返回，由调用方降级为文件级校验失败
func (s *SchemaService) ResolveSchema(ctx context.Context, schema *models.DatasetFileSchema) (*TableSchema, error) {
	doc := []byte(schema.Schema)

	if len(doc) == 0 {
		if schema.URL == "" {
			return nil, errors.New("schema没有可用的来源地址")
		}

		fetched, err := s.fetchSchemaDoc(ctx, schema.URL)
		if err != nil {
			return nil, err
		}
		doc = fetched

		// 缓存回填失败不影响本次校验
		if err := s.schemaRepo.UpdateCachedSchema(schema.ID, string(doc)); err != nil {
			log.Printf("[SchemaService] 缓存schema文档失败: id=%d err=%v", schema.ID, err)
		}
	}

	return ParseTableSchema(doc)
}

// fetchSchemaDoc 按URL拉取schema文档
func (s *SchemaService) fetchSchemaDoc(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建schema请求失败: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("拉取schema失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("拉取schema失败: HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// CreateSchemaModel 创建作者态schema
func (s *SchemaService) CreateSchemaModel(userID uint, req *dto.CreateSchemaModelRequest) (*models.SchemaModel, error) {
	model := &models.SchemaModel{
		Name:         req.Name,
		Description:  req.Description,
		UserID:       userID,
		SchemaFields: buildModelFields(req.Fields),
	}

	if err := s.schemaModelRepo.Create(model); err != nil {
		return nil, fmt.Errorf("创建schema失败: %w", err)
	}

	return model, nil
}

// UpdateSchemaModel 更新作者态schema(发布前可变)
func (s *SchemaService) UpdateSchemaModel(id uint, userID uint, req *dto.UpdateSchemaModelRequest) (*models.SchemaModel, error) {
	model, err := s.schemaModelRepo.GetByIDAndUserID(id, userID)
	if err != nil {
		return nil, errors.New("schema不存在或无权访问")
	}

	if req.Name != "" {
		model.Name = req.Name
	}
	if req.Description != "" {
		model.Description = req.Description
	}

	if len(req.Fields) > 0 {
		if err := s.schemaModelRepo.ReplaceFields(model.ID, buildModelFields(req.Fields)); err != nil {
			return nil, fmt.Errorf("更新schema字段失败: %w", err)
		}
	}

	model.SchemaFields = nil
	if err := s.schemaModelRepo.Update(model); err != nil {
		return nil, fmt.Errorf("更新schema失败: %w", err)
	}

	return s.schemaModelRepo.GetByIDAndUserID(id, userID)
}

// GetSchemaModel 获取作者态schema
func (s *SchemaService) GetSchemaModel(id uint, userID uint) (*models.SchemaModel, error) {
	return s.schemaModelRepo.GetByIDAndUserID(id, userID)
}

// ListSchemaModels 获取用户的作者态schema列表
func (s *SchemaService) ListSchemaModels(userID uint, page, perPage int) ([]models.SchemaModel, int64, error) {
	offset := (page - 1) * perPage
	return s.schemaModelRepo.ListByUserID(userID, offset, perPage)
}

// DeleteSchemaModel 删除作者态schema
func (s *SchemaService) DeleteSchemaModel(id uint, userID uint) error {
	if _, err := s.schemaModelRepo.GetByIDAndUserID(id, userID); err != nil {
		return errors.New("schema不存在或无权访问")
	}
	return s.schemaModelRepo.Delete(id)
}

// PublishSchemaModel 将作者态schema冻结为不可变的校验工件
// 冻结时将字段约束序列化为schema文档并缓存，发布后的工件不随作者态变化
func (s *SchemaService) PublishSchemaModel(id uint, userID uint) (*models.DatasetFileSchema, error) {
	model, err := s.schemaModelRepo.GetByIDAndUserID(id, userID)
	if err != nil {
		return nil, errors.New("schema不存在或无权访问")
	}

	tableSchema := TableSchema{Fields: make([]SchemaField, 0, len(model.SchemaFields))}
	for i := range model.SchemaFields {
		field := &model.SchemaFields[i]
		sf := SchemaField{
			Name: field.Name,
			Type: field.Type,
			Constraints: &FieldConstraints{
				Required: field.Required,
			},
		}
		if field.SchemaConstraint != nil {
			sf.Constraints.Pattern = field.SchemaConstraint.Pattern
			sf.Constraints.Enum = field.SchemaConstraint.Enum
		}
		tableSchema.Fields = append(tableSchema.Fields, sf)
	}

	doc, err := json.Marshal(tableSchema)
	if err != nil {
		return nil, fmt.Errorf("序列化schema文档失败: %w", err)
	}

	schema := &models.DatasetFileSchema{
		Name:        model.Name,
		Description: model.Description,
		Schema:      string(doc),
		UserID:      userID,
	}

	if err := s.schemaRepo.Create(schema); err != nil {
		return nil, fmt.Errorf("发布schema失败: %w", err)
	}

	return schema, nil
}

// buildModelFields 将字段输入转换为作者态字段模型
func buildModelFields(inputs []dto.SchemaFieldInput) []models.ModelSchemaField {
	fields := make([]models.ModelSchemaField, 0, len(inputs))
	for _, in := range inputs {
		field := models.ModelSchemaField{
			Name:     in.Name,
			Type:     in.Type,
			Required: in.Required,
		}
		if field.Type == "" {
			field.Type = "string"
		}
		if in.Constraint != nil {
			field.SchemaConstraint = &models.ModelSchemaConstraint{
				Name:    in.Constraint.Name,
				Pattern: in.Constraint.Pattern,
				Enum:    models.StringList(in.Constraint.Enum),
			}
		}
		fields = append(fields, field)
	}
	return fields
}
