package utils

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}

	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugTrimDash = regexp.MustCompile(`^-+|-+$`)
)

// NormalizeUTF8 将上传的文件内容规范化为UTF-8
// 依据BOM识别UTF-16编码并转码，去除BOM，统一NFC规范化
func NormalizeUTF8(content []byte) ([]byte, error) {
	var decoded []byte
	var err error

	switch {
	case bytes.HasPrefix(content, utf16BEBOM):
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		decoded, _, err = transform.Bytes(decoder, content)
	case bytes.HasPrefix(content, utf16LEBOM):
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, _, err = transform.Bytes(decoder, content)
	case bytes.HasPrefix(content, utf8BOM):
		decoded = content[len(utf8BOM):]
	default:
		decoded = content
	}

	if err != nil {
		return nil, err
	}

	return norm.NFC.Bytes(decoded), nil
}

// Slugify 将标题转换为路径安全的slug
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = slugTrimDash.ReplaceAllString(slug, "")
	if slug == "" {
		slug = "file"
	}
	return slug
}

// TargetPath 计算文件在仓库中的目标路径，如 data/my-file.csv
func TargetPath(title, filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".csv"
	}
	return "data/" + Slugify(title) + ext
}
