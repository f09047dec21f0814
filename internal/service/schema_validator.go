package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TableSchema 表格schema描述
type TableSchema struct {
	Fields []SchemaField `json:"fields"`
}

// SchemaField schema中的单个字段约束
type SchemaField struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Constraints *FieldConstraints `json:"constraints"`
}

// FieldConstraints 字段的取值约束
type FieldConstraints struct {
	Required bool     `json:"required"`
	Pattern  string   `json:"pattern"`
	Enum     []string `json:"enum"`
}

// ParseTableSchema 解析schema文档(JSON)
func ParseTableSchema(doc []byte) (*TableSchema, error) {
	var schema TableSchema
	if err := json.Unmarshal(doc, &schema); err != nil {
		return nil, fmt.Errorf("解析schema文档失败: %w", err)
	}
	if len(schema.Fields) == 0 {
		return nil, fmt.Errorf("schema文档不包含字段定义")
	}
	return &schema, nil
}

// Required 字段是否必填
func (f *SchemaField) Required() bool {
	return f.Constraints != nil && f.Constraints.Required
}

// ValueCheck 单个约束能力: 按schema声明的约束类型检查一个单元格取值
type ValueCheck interface {
	Check(value string) bool
	Describe() string
}

// typeCheck 类型约束
type typeCheck struct {
	kind string
}

func (t *typeCheck) Check(value string) bool {
	switch t.kind {
	case "integer":
		_, err := strconv.ParseInt(value, 10, 64)
		return err == nil
	case "number":
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case "boolean":
		switch strings.ToLower(value) {
		case "true", "false", "1", "0":
			return true
		}
		return false
	case "date":
		_, err := time.Parse("2006-01-02", value)
		return err == nil
	default:
		// string或未声明类型不限制取值
		return true
	}
}

func (t *typeCheck) Describe() string {
	return fmt.Sprintf("is not a valid %s", t.kind)
}

// patternCheck 正则约束，整体匹配
type patternCheck struct {
	re *regexp.Regexp
}

func (p *patternCheck) Check(value string) bool {
	return p.re.MatchString(value)
}

func (p *patternCheck) Describe() string {
	return fmt.Sprintf("does not match pattern '%s'", p.re.String())
}

// enumCheck 枚举约束
type enumCheck struct {
	allowed map[string]bool
	list    []string
}

func (e *enumCheck) Check(value string) bool {
	return e.allowed[value]
}

func (e *enumCheck) Describe() string {
	return fmt.Sprintf("is not one of [%s]", strings.Join(e.list, ", "))
}

// buildChecks 按字段声明组装约束检查器
func buildChecks(field *SchemaField) []ValueCheck {
	var checks []ValueCheck

	if field.Type != "" && field.Type != "string" {
		checks = append(checks, &typeCheck{kind: field.Type})
	}

	if field.Constraints != nil {
		if field.Constraints.Pattern != "" {
			// 无效的pattern视为schema自身问题，按永不匹配处理
			re, err := regexp.Compile("^(?:" + field.Constraints.Pattern + ")$")
			if err == nil {
				checks = append(checks, &patternCheck{re: re})
			} else {
				checks = append(checks, &neverMatch{pattern: field.Constraints.Pattern})
			}
		}
		if len(field.Constraints.Enum) > 0 {
			allowed := make(map[string]bool, len(field.Constraints.Enum))
			for _, v := range field.Constraints.Enum {
				allowed[v] = true
			}
			checks = append(checks, &enumCheck{allowed: allowed, list: field.Constraints.Enum})
		}
	}

	return checks
}

// neverMatch 无法编译的pattern
type neverMatch struct {
	pattern string
}

func (n *neverMatch) Check(string) bool { return false }

func (n *neverMatch) Describe() string {
	return fmt.Sprintf("does not match pattern '%s'", n.pattern)
}

// ValidateFile 校验单个表格文件
// 纯函数，不做任何I/O；返回违规描述列表，空列表表示完全符合
// 内容无法解析不报错，本身就是一条违规
func ValidateFile(title string, content []byte, schema *TableSchema) []string {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return []string{fmt.Sprintf("%s: could not parse file as CSV", title)}
	}

	var violations []string

	// 表头检查: 必填列不可缺失，schema未声明的列为意外列
	header := records[0]
	headerIx := make(map[string]int, len(header))
	for i, name := range header {
		headerIx[strings.TrimSpace(name)] = i
	}

	declared := make(map[string]bool, len(schema.Fields))
	for i := range schema.Fields {
		field := &schema.Fields[i]
		declared[field.Name] = true
		if _, ok := headerIx[field.Name]; !ok && field.Required() {
			violations = append(violations, fmt.Sprintf("%s: missing column '%s'", title, field.Name))
		}
	}
	for _, name := range header {
		if !declared[strings.TrimSpace(name)] {
			violations = append(violations, fmt.Sprintf("%s: unexpected column '%s'", title, strings.TrimSpace(name)))
		}
	}

	// 逐行逐字段检查，每个违规的(行,字段)产生一条描述
	for i := range schema.Fields {
		field := &schema.Fields[i]
		col, ok := headerIx[field.Name]
		if !ok {
			continue
		}

		checks := buildChecks(field)

		for rowIx, row := range records[1:] {
			var value string
			if col < len(row) {
				value = strings.TrimSpace(row[col])
			}

			if value == "" {
				if field.Required() {
					violations = append(violations, fmt.Sprintf(
						"%s: row %d, field '%s': missing required value", title, rowIx+2, field.Name))
				}
				continue
			}

			for _, check := range checks {
				if !check.Check(value) {
					violations = append(violations, fmt.Sprintf(
						"%s: row %d, field '%s': value '%s' %s", title, rowIx+2, field.Name, value, check.Describe()))
				}
			}
		}
	}

	return violations
}
