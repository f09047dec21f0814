package repo_client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commitRequest struct {
	Message string       `json:"message"`
	Files   []stagedFile `json:"files"`
}

func TestFindRepo(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/repos/octo-owner/test-data", r.URL.Path)
		json.NewEncoder(w).Encode(repoInfo{
			Owner:    "octo-owner",
			Name:     "test-data",
			FullName: "octo-owner/test-data",
			HTMLURL:  "https://repos.test/octo-owner/test-data",
			Paths:    []string{"data/old.csv"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	repo, err := client.Find(context.Background(), "octo-owner", "test-data", "secret")
	require.NoError(t, err)

	assert.Equal(t, "token secret", gotAuth)
	assert.Equal(t, "https://repos.test/octo-owner/test-data", repo.HTMLURL())
	assert.True(t, repo.HasPath("data/old.csv"))
	assert.False(t, repo.HasPath("data/new.csv"))
}

func TestFindRepoNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Find(context.Background(), "octo-owner", "missing", "secret")
	assert.ErrorIs(t, err, ErrRepoNotFound)
}

func TestCreateRepo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/repos", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "octo-owner", req["owner"])
		assert.Equal(t, true, req["private"])

		json.NewEncoder(w).Encode(repoInfo{Owner: "octo-owner", Name: "test-data"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	repo, err := client.Create(context.Background(), "octo-owner", "test-data", true, "secret")
	require.NoError(t, err)
	assert.False(t, repo.HasPath("data/anything.csv"))
}

func TestCredentialRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Find(context.Background(), "octo-owner", "test-data", "bad-token")
	assert.ErrorIs(t, err, ErrRepositoryUnavailable)
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 立刻关掉，模拟服务不可达

	client := NewClient(server.URL, time.Second)
	_, err := client.Find(context.Background(), "octo-owner", "test-data", "secret")
	assert.ErrorIs(t, err, ErrRepositoryUnavailable)
}

func TestSaveCommitsStagedFiles(t *testing.T) {
	var commits []commitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/octo-owner/test-data" {
			json.NewEncoder(w).Encode(repoInfo{Paths: []string{"data/existing.csv"}})
			return
		}

		require.Equal(t, "/repos/octo-owner/test-data/commits", r.URL.Path)
		var req commitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		commits = append(commits, req)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	repo, err := client.Find(context.Background(), "octo-owner", "test-data", "secret")
	require.NoError(t, err)

	repo.AddFile("data/new.csv", []byte("a,b\n1,2\n"))
	repo.UpdateFile("data/existing.csv", []byte("c\n3\n"))
	require.NoError(t, repo.Save(context.Background()))

	require.Len(t, commits, 1)
	commit := commits[0]
	assert.Equal(t, "Dataset configuration", commit.Message)
	require.Len(t, commit.Files, 2)
	assert.Equal(t, "data/new.csv", commit.Files[0].Path)

	decoded, err := base64.StdEncoding.DecodeString(commit.Files[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(decoded))

	// 提交后路径并入已存在集合
	assert.True(t, repo.HasPath("data/new.csv"))
}

func TestStagingIsIdempotentPerPath(t *testing.T) {
	var commits []commitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/octo-owner/test-data" {
			json.NewEncoder(w).Encode(repoInfo{})
			return
		}
		var req commitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		commits = append(commits, req)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	repo, err := client.Find(context.Background(), "octo-owner", "test-data", "secret")
	require.NoError(t, err)

	// 同路径重复暂存为覆盖，不重复提交
	repo.AddFile("data/file.csv", []byte("v1"))
	repo.AddFile("data/file.csv", []byte("v2"))
	require.NoError(t, repo.Save(context.Background()))

	require.Len(t, commits, 1)
	require.Len(t, commits[0].Files, 1)
	decoded, _ := base64.StdEncoding.DecodeString(commits[0].Files[0].Content)
	assert.Equal(t, "v2", string(decoded))
}

func TestRepeatedSaveIsNoop(t *testing.T) {
	commitCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/octo-owner/test-data" {
			json.NewEncoder(w).Encode(repoInfo{})
			return
		}
		commitCount++
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	repo, err := client.Find(context.Background(), "octo-owner", "test-data", "secret")
	require.NoError(t, err)

	repo.AddFile("data/file.csv", []byte("v1"))
	require.NoError(t, repo.Save(context.Background()))
	require.NoError(t, repo.Save(context.Background()))

	assert.Equal(t, 1, commitCount)
}

func TestSaveRejectedByHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/octo-owner/test-data" {
			json.NewEncoder(w).Encode(repoInfo{})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	repo, err := client.Find(context.Background(), "octo-owner", "test-data", "secret")
	require.NoError(t, err)

	repo.AddFile("data/file.csv", []byte("v1"))
	err = repo.Save(context.Background())
	assert.ErrorIs(t, err, ErrRepositoryUnavailable)

	// 失败的提交不改变已存在集合
	assert.False(t, repo.HasPath("data/file.csv"))
}
