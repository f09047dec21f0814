package dto

// CreateSchemaRequest 登记文件schema请求
type CreateSchemaRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	URL         string `json:"url" binding:"required,url"`
}

// SchemaResponse 文件schema响应
type SchemaResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     int    `json:"version"`
	URL         string `json:"url"`
	CreatedAt   string `json:"created_at"`
}

// SchemaFieldInput schema字段输入
type SchemaFieldInput struct {
	Name       string               `json:"name" binding:"required"`
	Type       string               `json:"type" binding:"omitempty,oneof=string integer number boolean date"`
	Required   bool                 `json:"required"`
	Constraint *SchemaConstraintInput `json:"constraint"`
}

// SchemaConstraintInput schema字段约束输入
type SchemaConstraintInput struct {
	Name    string   `json:"name"`
	Pattern string   `json:"pattern"`
	Enum    []string `json:"enum"`
}

// CreateSchemaModelRequest 创建作者态schema请求
type CreateSchemaModelRequest struct {
	Name        string             `json:"name" binding:"required,max=255"`
	Description string             `json:"description"`
	Fields      []SchemaFieldInput `json:"fields" binding:"required,min=1,dive"`
}

// UpdateSchemaModelRequest 更新作者态schema请求
type UpdateSchemaModelRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Fields      []SchemaFieldInput `json:"fields" binding:"omitempty,dive"`
}

// SchemaModelResponse 作者态schema响应
type SchemaModelResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Fields      []SchemaFieldInput `json:"fields"`
	CreatedAt   string             `json:"created_at"`
}
