package service

import (
	"context"
	"errors"

	"github.com/caiwilliamson/octopub/pkg/repo_client"
)

// RepoHandle 一次发布尝试内的远程仓库句柄
type RepoHandle interface {
	HasPath(path string) bool
	AddFile(path string, content []byte)
	UpdateFile(path string, content []byte)
	Save(ctx context.Context) error
	HTMLURL() string
}

// RepoStore 远程仓库服务的查找/创建能力
type RepoStore interface {
	Find(ctx context.Context, owner, name, token string) (RepoHandle, error)
	Create(ctx context.Context, owner, name string, restricted bool, token string) (RepoHandle, error)
}

// repoClientStore 基于repo_client的RepoStore实现
type repoClientStore struct {
	client *repo_client.Client
}

// NewRepoStore 包装远程仓库HTTP客户端
func NewRepoStore(client *repo_client.Client) RepoStore {
	return &repoClientStore{client: client}
}

func (s *repoClientStore) Find(ctx context.Context, owner, name, token string) (RepoHandle, error) {
	repo, err := s.client.Find(ctx, owner, name, token)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (s *repoClientStore) Create(ctx context.Context, owner, name string, restricted bool, token string) (RepoHandle, error) {
	repo, err := s.client.Create(ctx, owner, name, restricted, token)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// RepoPublisher 发布器
// 把 查找/创建 + 新增/更新 + 提交 收敛为一次发布尝试内的单个句柄操作
type RepoPublisher struct {
	store RepoStore
}

// NewRepoPublisher 创建发布器
func NewRepoPublisher(store RepoStore) *RepoPublisher {
	return &RepoPublisher{store: store}
}

// Resolve 解析目标仓库: 已存在则复用，首次发布时创建
func (p *RepoPublisher) Resolve(ctx context.Context, owner, name string, restricted bool, token string) (RepoHandle, error) {
	handle, err := p.store.Find(ctx, owner, name, token)
	if err == nil {
		return handle, nil
	}

	if errors.Is(err, repo_client.ErrRepoNotFound) {
		return p.store.Create(ctx, owner, name, restricted, token)
	}

	return nil, err
}

// Write 写入文件: 路径不存在则新增，已存在则更新
// 同路径同内容重复调用为幂等空操作，重试安全
func (p *RepoPublisher) Write(handle RepoHandle, path string, content []byte) {
	if handle.HasPath(path) {
		handle.UpdateFile(path, content)
	} else {
		handle.AddFile(path, content)
	}
}

// Commit 将全部待写入内容落盘为单次持久保存
// 只有Commit成功后文件才可标记为已发布
func (p *RepoPublisher) Commit(ctx context.Context, handle RepoHandle) error {
	return handle.Save(ctx)
}
