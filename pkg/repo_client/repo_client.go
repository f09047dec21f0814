package repo_client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRepositoryUnavailable 远程仓库服务不可达、拒绝凭证或拒绝写入
var ErrRepositoryUnavailable = errors.New("repository unavailable")

// ErrRepoNotFound 远程仓库不存在
var ErrRepoNotFound = errors.New("repository not found")

// Client 远程仓库服务HTTP客户端
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient 创建远程仓库服务客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

// repoInfo 远程仓库元信息
type repoInfo struct {
	Owner    string   `json:"owner"`
	Name     string   `json:"name"`
	FullName string   `json:"full_name"`
	HTMLURL  string   `json:"html_url"`
	Paths    []string `json:"paths"` // 仓库中已存在的文件路径
}

// stagedFile 待提交的文件
type stagedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"` // base64编码
}

// Repo 一次发布尝试期间的远程仓库句柄
// 写入先在本地暂存，Save时作为单次提交落盘；句柄不跨任务共享
type Repo struct {
	client   *Client
	owner    string
	name     string
	token    string
	htmlURL  string
	existing map[string]bool
	staged   []stagedFile
	stagedIx map[string]int
}

// Find 查找已存在的远程仓库
func (c *Client) Find(ctx context.Context, owner, name, token string) (*Repo, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, name)

	var info repoInfo
	if err := c.doJSON(ctx, http.MethodGet, url, token, nil, &info); err != nil {
		return nil, err
	}

	return c.newRepo(owner, name, token, &info), nil
}

// Create 创建远程仓库
func (c *Client) Create(ctx context.Context, owner, name string, restricted bool, token string) (*Repo, error) {
	url := fmt.Sprintf("%s/repos", c.baseURL)

	reqBody := map[string]interface{}{
		"owner":   owner,
		"name":    name,
		"private": restricted,
	}

	var info repoInfo
	if err := c.doJSON(ctx, http.MethodPost, url, token, reqBody, &info); err != nil {
		return nil, err
	}

	return c.newRepo(owner, name, token, &info), nil
}

// newRepo 构建仓库句柄
func (c *Client) newRepo(owner, name, token string, info *repoInfo) *Repo {
	existing := make(map[string]bool, len(info.Paths))
	for _, p := range info.Paths {
		existing[p] = true
	}

	return &Repo{
		client:   c,
		owner:    owner,
		name:     name,
		token:    token,
		htmlURL:  info.HTMLURL,
		existing: existing,
		stagedIx: make(map[string]int),
	}
}

// HasPath 路径是否已存在于远程仓库
func (r *Repo) HasPath(path string) bool {
	return r.existing[path]
}

// HTMLURL 仓库页面地址
func (r *Repo) HTMLURL() string {
	return r.htmlURL
}

// AddFile 暂存新增文件
func (r *Repo) AddFile(path string, content []byte) {
	r.stage(path, content)
}

// UpdateFile 暂存更新文件
func (r *Repo) UpdateFile(path string, content []byte) {
	r.stage(path, content)
}

// stage 按路径暂存文件内容，同一路径重复暂存为幂等覆盖
func (r *Repo) stage(path string, content []byte) {
	encoded := base64.StdEncoding.EncodeToString(content)

	if ix, ok := r.stagedIx[path]; ok {
		r.staged[ix].Content = encoded
		return
	}

	r.stagedIx[path] = len(r.staged)
	r.staged = append(r.staged, stagedFile{Path: path, Content: encoded})
}

// Save 将全部暂存文件作为单次提交写入远程仓库
// 只有Save成功返回后写入才对外部可见
func (r *Repo) Save(ctx context.Context) error {
	if len(r.staged) == 0 {
		return nil
	}

	url := fmt.Sprintf("%s/repos/%s/%s/commits", r.client.baseURL, r.owner, r.name)

	reqBody := map[string]interface{}{
		"message": "Dataset configuration",
		"files":   r.staged,
	}

	if err := r.client.doJSON(ctx, http.MethodPost, url, r.token, reqBody, nil); err != nil {
		return err
	}

	// 提交成功后同步已存在路径集合，重复Save为无操作
	for _, f := range r.staged {
		r.existing[f.Path] = true
	}
	r.staged = nil
	r.stagedIx = make(map[string]int)

	return nil
}

// doJSON 发送JSON请求并解析响应
func (c *Client) doJSON(ctx context.Context, method, url, token string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrRepoNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: 凭证被拒绝 (HTTP %d)", ErrRepositoryUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: HTTP %d: %s", ErrRepositoryUnavailable, resp.StatusCode, string(data))
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("%w: 解析响应失败: %v", ErrRepositoryUnavailable, err)
		}
	}

	return nil
}
