package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/caiwilliamson/octopub/internal/config"
	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/repository"
	"github.com/caiwilliamson/octopub/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthTest(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrateDB(db))

	cfg := &config.Config{}
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "admin-password"

	jwtManager := utils.NewJWTManager("test-secret", "HS256", time.Hour)
	return NewAuthService(repository.NewUserRepository(db), jwtManager, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuthTest(t)

	user, err := svc.Register(&dto.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "password1", user.PasswordHash)

	resp, err := svc.Login(&dto.LoginRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.UserID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := setupAuthTest(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{Username: "alice", Password: "password2"})
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := setupAuthTest(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.Error(t, err)

	_, err = svc.Login(&dto.LoginRequest{Username: "nobody", Password: "password1"})
	assert.Error(t, err)
}

func TestInitAdminIsIdempotent(t *testing.T) {
	svc := setupAuthTest(t)

	require.NoError(t, svc.InitAdmin())
	require.NoError(t, svc.InitAdmin())

	resp, err := svc.Login(&dto.LoginRequest{Username: "admin", Password: "admin-password"})
	require.NoError(t, err)
	assert.True(t, resp.IsAdmin)
}

func TestUpdateRepoToken(t *testing.T) {
	svc := setupAuthTest(t)

	user, err := svc.Register(&dto.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateRepoToken(user.ID, &dto.UpdateRepoTokenRequest{
		RepoOwner: "octo-owner",
		RepoToken: "secret",
	}))

	got, err := svc.GetMe(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "octo-owner", got.RepoOwner)
	assert.Equal(t, "secret", got.RepoToken)
}
