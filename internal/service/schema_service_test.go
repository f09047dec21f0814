package service

import (
	"context"
	"net/http"
	"net/http/httptest"
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

func setupSchemaTest(t *testing.T) (*SchemaService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrateDB(db))

	svc := NewSchemaService(
		repository.NewSchemaRepository(db),
		repository.NewSchemaModelRepository(db),
		5*time.Second,
	)
	return svc, db
}

func TestResolveSchemaUsesCachedDocument(t *testing.T) {
	svc, _ := setupSchemaTest(t)

	schema := &models.DatasetFileSchema{
		ID:     1,
		Schema: `{"fields":[{"name":"id","type":"integer"}]}`,
	}

	resolved, err := svc.ResolveSchema(context.Background(), schema)
	require.NoError(t, err)
	require.Len(t, resolved.Fields, 1)
	assert.Equal(t, "id", resolved.Fields[0].Name)
}

func TestResolveSchemaFetchesAndBackfillsCache(t *testing.T) {
	svc, db := setupSchemaTest(t)

	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(`{"fields":[{"name":"name"}]}`))
	}))
	defer server.Close()

	schema := &models.DatasetFileSchema{Name: "Remote", URL: server.URL, UserID: 1}
	require.NoError(t, db.Create(schema).Error)

	resolved, err := svc.ResolveSchema(context.Background(), schema)
	require.NoError(t, err)
	assert.Equal(t, "name", resolved.Fields[0].Name)
	assert.Equal(t, 1, fetches)

	// 拉取的文档回填到缓存
	var stored models.DatasetFileSchema
	require.NoError(t, db.First(&stored, schema.ID).Error)
	assert.NotEmpty(t, stored.Schema)

	// 再次解析命中缓存，不再拉取
	_, err = svc.ResolveSchema(context.Background(), &stored)
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
}

func TestResolveSchemaUnreachableSource(t *testing.T) {
	svc, _ := setupSchemaTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	schema := &models.DatasetFileSchema{ID: 1, URL: server.URL}
	_, err := svc.ResolveSchema(context.Background(), schema)
	assert.Error(t, err)
}

func TestResolveSchemaWithoutSource(t *testing.T) {
	svc, _ := setupSchemaTest(t)

	_, err := svc.ResolveSchema(context.Background(), &models.DatasetFileSchema{ID: 1})
	assert.Error(t, err)
}

func TestDeleteSchemaRefusedWhileReferenced(t *testing.T) {
	svc, db := setupSchemaTest(t)

	schema, err := svc.RegisterSchema(1, &dto.CreateSchemaRequest{
		Name: "People Schema",
		URL:  "https://schemas.test/people.json",
	})
	require.NoError(t, err)

	dataset := &models.Dataset{
		Name: "Data", Licence: "CC0-1.0", Frequency: "Monthly",
		RepoOwner: "o", Status: models.DatasetStatusPending, UserID: 1,
		DatasetFiles: []models.DatasetFile{
			{Title: "F", TargetPath: "data/f.csv", SchemaID: &schema.ID},
		},
	}
	require.NoError(t, db.Create(dataset).Error)

	assert.Error(t, svc.DeleteSchema(schema.ID, 1))

	// 解除引用后可删除
	require.NoError(t, db.Model(&models.DatasetFile{}).
		Where("schema_id = ?", schema.ID).Update("schema_id", nil).Error)
	assert.NoError(t, svc.DeleteSchema(schema.ID, 1))
}

func TestSchemaModelLifecycle(t *testing.T) {
	svc, _ := setupSchemaTest(t)

	model, err := svc.CreateSchemaModel(1, &dto.CreateSchemaModelRequest{
		Name: "People",
		Fields: []dto.SchemaFieldInput{
			{Name: "id", Type: "integer", Required: true},
			{Name: "colour", Constraint: &dto.SchemaConstraintInput{Enum: []string{"red", "green"}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, model.SchemaFields, 2)
	assert.Equal(t, "string", model.SchemaFields[1].Type)

	updated, err := svc.UpdateSchemaModel(model.ID, 1, &dto.UpdateSchemaModelRequest{
		Fields: []dto.SchemaFieldInput{{Name: "id", Type: "integer", Required: true}},
	})
	require.NoError(t, err)
	require.Len(t, updated.SchemaFields, 1)

	require.NoError(t, svc.DeleteSchemaModel(model.ID, 1))
	_, err = svc.GetSchemaModel(model.ID, 1)
	assert.Error(t, err)
}

func TestPublishSchemaModelFreezesDocument(t *testing.T) {
	svc, _ := setupSchemaTest(t)

	model, err := svc.CreateSchemaModel(1, &dto.CreateSchemaModelRequest{
		Name: "People",
		Fields: []dto.SchemaFieldInput{
			{Name: "id", Type: "integer", Required: true},
			{Name: "code", Constraint: &dto.SchemaConstraintInput{Pattern: "[A-Z]{3}"}},
		},
	})
	require.NoError(t, err)

	published, err := svc.PublishSchemaModel(model.ID, 1)
	require.NoError(t, err)
	require.NotEmpty(t, published.Schema)

	// 冻结的文档可直接用于校验
	frozen, err := ParseTableSchema([]byte(published.Schema))
	require.NoError(t, err)
	require.Len(t, frozen.Fields, 2)
	assert.True(t, frozen.Fields[0].Required())
	assert.Equal(t, "[A-Z]{3}", frozen.Fields[1].Constraints.Pattern)

	// 发布后作者态变更不影响已冻结的工件
	_, err = svc.UpdateSchemaModel(model.ID, 1, &dto.UpdateSchemaModelRequest{
		Fields: []dto.SchemaFieldInput{{Name: "renamed"}},
	})
	require.NoError(t, err)

	again, err := ParseTableSchema([]byte(published.Schema))
	require.NoError(t, err)
	assert.Equal(t, "id", again.Fields[0].Name)
}

func TestSchemaModelOwnership(t *testing.T) {
	svc, _ := setupSchemaTest(t)

	model, err := svc.CreateSchemaModel(1, &dto.CreateSchemaModelRequest{
		Name:   "Private",
		Fields: []dto.SchemaFieldInput{{Name: "id"}},
	})
	require.NoError(t, err)

	_, err = svc.GetSchemaModel(model.ID, 2)
	assert.Error(t, err)
	_, err = svc.PublishSchemaModel(model.ID, 2)
	assert.Error(t, err)
	assert.Error(t, svc.DeleteSchemaModel(model.ID, 2))
}
