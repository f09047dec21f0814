package service

import (
	"errors"
	"fmt"

	"github.com/caiwilliamson/octopub/internal/config"
	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/repository"
	"github.com/caiwilliamson/octopub/internal/utils"
)

// AuthService 认证服务
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *utils.JWTManager
	cfg        *config.Config
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *repository.UserRepository, jwtManager *utils.JWTManager, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		cfg:        cfg,
	}
}

// Register 用户注册
func (s *AuthService) Register(req *dto.RegisterRequest) (*models.User, error) {
	// 验证用户名是否已存在
	exists, err := s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, fmt.Errorf("检查用户名失败: %w", err)
	}
	if exists {
		return nil, errors.New("用户名已存在")
	}

	// 哈希密码
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	// 创建用户
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsActive:     true,
		IsAdmin:      false,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	return user, nil
}

// Login 用户登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 获取用户
	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		return nil, errors.New("用户名或密码错误")
	}

	// 验证密码
	if err := utils.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, errors.New("用户名或密码错误")
	}

	// 检查用户是否激活
	if !user.IsActive {
		return nil, errors.New("用户已被禁用")
	}

	// 生成Token
	token, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("生成Token失败: %w", err)
	}

	return &dto.LoginResponse{
		Success:  true,
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, nil
}

// GetMe 获取当前用户信息
func (s *AuthService) GetMe(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateRepoToken 绑定远程仓库账号和访问令牌
// 令牌随任务执行上下文显式传递，不做全局共享
func (s *AuthService) UpdateRepoToken(userID uint, req *dto.UpdateRepoTokenRequest) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return errors.New("用户不存在")
	}

	user.RepoOwner = req.RepoOwner
	user.RepoToken = req.RepoToken

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("更新仓库令牌失败: %w", err)
	}

	return nil
}

// InitAdmin 初始化管理员账户
func (s *AuthService) InitAdmin() error {
	exists, err := s.userRepo.ExistsByUsername(s.cfg.Admin.Username)
	if err != nil {
		return fmt.Errorf("检查管理员账户失败: %w", err)
	}
	if exists {
		return nil
	}

	hashedPassword, err := utils.HashPassword(s.cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("密码哈希失败: %w", err)
	}

	admin := &models.User{
		Username:     s.cfg.Admin.Username,
		PasswordHash: hashedPassword,
		IsActive:     true,
		IsAdmin:      true,
	}

	if err := s.userRepo.Create(admin); err != nil {
		return fmt.Errorf("创建管理员账户失败: %w", err)
	}

	return nil
}
