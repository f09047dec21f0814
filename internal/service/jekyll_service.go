package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/utils"
)

// GeneratedFile 静态站点生成器产出的附加文件
type GeneratedFile struct {
	Path    string
	Content []byte
}

// JekyllService 静态站点文件生成
// 纯函数: (数据集, 文件) -> 附加文件列表，随数据文件一并提交
type JekyllService struct{}

// NewJekyllService 创建静态站点文件生成服务
func NewJekyllService() *JekyllService {
	return &JekyllService{}
}

// GenerateExtraFiles 生成数据集的站点展示文件
// 输出顺序固定: 每个数据文件一个markdown视图，随后datapackage.json、_config.yml、index.html
func (s *JekyllService) GenerateExtraFiles(dataset *models.Dataset, files []models.DatasetFile) ([]GeneratedFile, error) {
	var extras []GeneratedFile

	for i := range files {
		file := &files[i]
		mdPath := strings.TrimSuffix(file.TargetPath, ".csv") + ".md"
		extras = append(extras, GeneratedFile{
			Path:    mdPath,
			Content: s.fileView(file),
		})
	}

	datapackage, err := s.datapackage(dataset, files)
	if err != nil {
		return nil, err
	}
	extras = append(extras, GeneratedFile{Path: "datapackage.json", Content: datapackage})

	extras = append(extras, GeneratedFile{Path: "_config.yml", Content: s.siteConfig(dataset)})
	extras = append(extras, GeneratedFile{Path: "index.html", Content: s.indexPage(dataset)})

	return extras, nil
}

// fileView 单个数据文件的markdown展示页
func (s *JekyllService) fileView(file *models.DatasetFile) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("layout: resource\n")
	fmt.Fprintf(&b, "title: %s\n", file.Title)
	fmt.Fprintf(&b, "resource: %s\n", file.TargetPath)
	b.WriteString("---\n")
	if file.Description != "" {
		b.WriteString(file.Description)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// datapackage 数据集的datapackage.json描述
func (s *JekyllService) datapackage(dataset *models.Dataset, files []models.DatasetFile) ([]byte, error) {
	resources := make([]map[string]interface{}, 0, len(files))
	for i := range files {
		file := &files[i]
		resources = append(resources, map[string]interface{}{
			"title":       file.Title,
			"description": file.Description,
			"path":        file.TargetPath,
			"mediatype":   "text/csv",
		})
	}

	pkg := map[string]interface{}{
		"name":        utils.Slugify(dataset.Name),
		"title":       dataset.Name,
		"description": dataset.Description,
		"licenses": []map[string]interface{}{
			{"id": dataset.Licence},
		},
		"publishers": []map[string]interface{}{
			{"name": dataset.PublisherName, "web": dataset.PublisherURL},
		},
		"resources": resources,
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("生成datapackage失败: %w", err)
	}
	return data, nil
}

// siteConfig 站点的_config.yml
func (s *JekyllService) siteConfig(dataset *models.Dataset) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "title: %s\n", dataset.Name)
	fmt.Fprintf(&b, "description: %s\n", dataset.Description)
	fmt.Fprintf(&b, "update_frequency: %s\n", dataset.Frequency)
	b.WriteString("theme: octopub\n")
	return []byte(b.String())
}

// indexPage 站点首页
func (s *JekyllService) indexPage(dataset *models.Dataset) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("layout: default\n")
	fmt.Fprintf(&b, "title: %s\n", dataset.Name)
	b.WriteString("---\n")
	return []byte(b.String())
}
