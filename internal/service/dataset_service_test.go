package service

import (
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDatasetTest(t *testing.T) (*DatasetService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrateDB(db))

	schemaService := NewSchemaService(
		repository.NewSchemaRepository(db),
		repository.NewSchemaModelRepository(db),
		5*time.Second,
	)
	svc := NewDatasetService(
		repository.NewDatasetRepository(db),
		repository.NewUserRepository(db),
		schemaService,
	)
	return svc, db
}

func seedBoundUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Username:     "publisher",
		PasswordHash: "x",
		RepoOwner:    "octo-owner",
		RepoToken:    "secret",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func csvUpload(title, content string) dto.FileUpload {
	return dto.FileUpload{
		Title:    title,
		Filename: "upload.csv",
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
	}
}

func validCreateRequest() *dto.CreateDatasetRequest {
	return &dto.CreateDatasetRequest{
		Name:      "My Awesome Dataset",
		Licence:   "CC-BY-4.0",
		Frequency: "Monthly",
		Files:     []dto.FileUpload{csvUpload("My File", "a,b\n1,2\n")},
	}
}

func TestCreateDataset(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	dataset, err := svc.CreateDataset(user.ID, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.DatasetStatusPending, dataset.Status)
	assert.Equal(t, "octo-owner", dataset.RepoOwner)
	assert.Equal(t, "my-awesome-dataset", dataset.RepoName)
	require.Len(t, dataset.DatasetFiles, 1)

	file := dataset.DatasetFiles[0]
	assert.Equal(t, "data/my-file.csv", file.TargetPath)
	assert.Equal(t, []byte("a,b\n1,2\n"), file.FileContent)
	assert.Nil(t, file.SchemaID)
}

func TestCreateDatasetRejectsUnknownLicence(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	req := validCreateRequest()
	req.Licence = "WTFPL"
	_, err := svc.CreateDataset(user.ID, req)
	assert.Error(t, err)
}

func TestCreateDatasetRejectsUnknownFrequency(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	req := validCreateRequest()
	req.Frequency = "Sometimes"
	_, err := svc.CreateDataset(user.ID, req)
	assert.Error(t, err)
}

func TestCreateDatasetRequiresRepoBinding(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := &models.User{Username: "unbound", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	_, err := svc.CreateDataset(user.ID, validCreateRequest())
	assert.Error(t, err)
}

func TestCreateDatasetRejectsDuplicateName(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	_, err := svc.CreateDataset(user.ID, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.CreateDataset(user.ID, validCreateRequest())
	assert.Error(t, err)
}

func TestCreateDatasetRejectsBadBase64(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	req := validCreateRequest()
	req.Files[0].Content = "not base64!!"
	_, err := svc.CreateDataset(user.ID, req)
	assert.Error(t, err)
}

func TestCreateDatasetNormalizesUTF16(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	// "id" UTF-16LE编码，带BOM
	raw := []byte{0xFF, 0xFE, 'i', 0x00, 'd', 0x00}
	req := validCreateRequest()
	req.Files[0].Content = base64.StdEncoding.EncodeToString(raw)

	dataset, err := svc.CreateDataset(user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, []byte("id"), dataset.DatasetFiles[0].FileContent)
}

func TestCreateDatasetResolvesSchemaByID(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	schema := &models.DatasetFileSchema{Name: "People Schema", UserID: user.ID}
	require.NoError(t, db.Create(schema).Error)

	req := validCreateRequest()
	req.Files[0].SchemaID = &schema.ID

	dataset, err := svc.CreateDataset(user.ID, req)
	require.NoError(t, err)
	require.NotNil(t, dataset.DatasetFiles[0].SchemaID)
	assert.Equal(t, schema.ID, *dataset.DatasetFiles[0].SchemaID)
}

func TestCreateDatasetRejectsForeignSchema(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	other := &models.User{Username: "other", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(other).Error)
	schema := &models.DatasetFileSchema{Name: "Private Schema", UserID: other.ID}
	require.NoError(t, db.Create(schema).Error)

	req := validCreateRequest()
	req.Files[0].SchemaID = &schema.ID

	_, err := svc.CreateDataset(user.ID, req)
	assert.Error(t, err)
}

func TestCreateDatasetRegistersSchemaByURL(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	req := validCreateRequest()
	req.Files[0].SchemaURL = "https://schemas.test/people.json"

	dataset, err := svc.CreateDataset(user.ID, req)
	require.NoError(t, err)
	require.NotNil(t, dataset.DatasetFiles[0].SchemaID)

	// 同一URL再次引用复用已登记的schema
	req2 := validCreateRequest()
	req2.Name = "Second Dataset"
	req2.Files[0].SchemaURL = "https://schemas.test/people.json"

	second, err := svc.CreateDataset(user.ID, req2)
	require.NoError(t, err)
	assert.Equal(t, *dataset.DatasetFiles[0].SchemaID, *second.DatasetFiles[0].SchemaID)
}

func TestAddFiles(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	dataset, err := svc.CreateDataset(user.ID, validCreateRequest())
	require.NoError(t, err)

	updated, err := svc.AddFiles(dataset.ID, user.ID, []dto.FileUpload{
		csvUpload("Second File", "c\n3\n"),
	})
	require.NoError(t, err)
	require.Len(t, updated.DatasetFiles, 2)
	assert.Equal(t, "data/second-file.csv", updated.DatasetFiles[1].TargetPath)
}

func TestAddFilesRejectsForeignDataset(t *testing.T) {
	svc, db := setupDatasetTest(t)
	user := seedBoundUser(t, db)

	dataset, err := svc.CreateDataset(user.ID, validCreateRequest())
	require.NoError(t, err)

	other := &models.User{Username: "other", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(other).Error)

	_, err = svc.AddFiles(dataset.ID, other.ID, []dto.FileUpload{
		csvUpload("Sneaky", "a\n1\n"),
	})
	assert.Error(t, err)
}
