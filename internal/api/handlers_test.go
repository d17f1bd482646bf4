package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cerrors "cogit/internal/errors"
	"cogit/internal/middleware"
	"cogit/internal/repository"
	shared "cogit/shared/types"
	"cogit/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *repository.Repository {
	t.Helper()
	repo, err := repository.Init(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func write(t *testing.T, repo *repository.Repository, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(repo.Root, name), []byte(data), 0644))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	h := NewRouter(setupRepo(t), nil)

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[shared.HealthResponse](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLog(t *testing.T) {
	repo := setupRepo(t)
	h := NewRouter(repo, nil)

	rec := get(t, h, "/api/log")
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[shared.LogResponse](t, rec)
	assert.Empty(t, empty.Head)
	assert.NotNil(t, empty.Commits)
	assert.Empty(t, empty.Commits)

	write(t, repo, "a.txt", "one\n")
	first, err := repo.Commit("first")
	require.NoError(t, err)
	write(t, repo, "a.txt", "two\n")
	second, err := repo.Commit("second")
	require.NoError(t, err)

	resp := decode[shared.LogResponse](t, get(t, h, "/api/log"))
	assert.Equal(t, second, resp.Head)
	require.Len(t, resp.Commits, 2)
	assert.Equal(t, second, resp.Commits[0].Hash)
	assert.Equal(t, utils.ShortHash(second), resp.Commits[0].ShortHash)
	assert.Equal(t, first, resp.Commits[0].Parent)
	assert.Equal(t, "first", resp.Commits[1].Message)
	assert.Empty(t, resp.Commits[1].Parent)
}

func TestStatus(t *testing.T) {
	repo := setupRepo(t)
	h := NewRouter(repo, nil)

	write(t, repo, "kept.txt", "same\n")
	_, err := repo.Commit("base")
	require.NoError(t, err)
	write(t, repo, "new.txt", "fresh\n")

	resp := decode[shared.StatusResponse](t, get(t, h, "/api/status"))
	require.Len(t, resp.Files, 2)
	got := map[string]string{}
	for _, f := range resp.Files {
		got[f.Path] = f.Classification
	}
	assert.Equal(t, map[string]string{"kept.txt": "unchanged", "new.txt": "untracked"}, got)
}

func TestDiff(t *testing.T) {
	repo := setupRepo(t)
	h := NewRouter(repo, nil)

	write(t, repo, "a.txt", "one\ntwo\n")
	write(t, repo, "b.txt", "same\n")
	_, err := repo.Commit("base")
	require.NoError(t, err)
	write(t, repo, "a.txt", "one\nTWO\n")

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantPaths  []string
		wantType   string
	}{
		{name: "single file", target: "/api/diff?path=a.txt", wantStatus: http.StatusOK, wantPaths: []string{"a.txt"}},
		{name: "all changed files", target: "/api/diff", wantStatus: http.StatusOK, wantPaths: []string{"a.txt"}},
		{name: "unchanged file", target: "/api/diff?path=b.txt", wantStatus: http.StatusBadRequest, wantType: string(cerrors.ErrorTypeNoChanges)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decode[shared.ErrorResponse](t, rec).Type)
				return
			}
			resp := decode[shared.DiffResponse](t, rec)
			var paths []string
			for _, d := range resp.Diffs {
				paths = append(paths, d.Path)
				assert.Equal(t, "modified", d.ChangeType)
				assert.Equal(t, 1, d.Additions)
				assert.Equal(t, 1, d.Deletions)
				assert.True(t, strings.HasPrefix(d.Patch, "--- a/a.txt\n+++ b/a.txt\n"))
			}
			assert.Equal(t, tt.wantPaths, paths)
		})
	}
}

func TestObject(t *testing.T) {
	repo := setupRepo(t)
	h := NewRouter(repo, nil)

	hash, err := repo.Objects.Store([]byte("payload"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		hash       string
		wantStatus int
		wantType   string
	}{
		{name: "stored object", hash: hash, wantStatus: http.StatusOK},
		{name: "missing object", hash: utils.HashContent([]byte("absent")), wantStatus: http.StatusNotFound, wantType: string(cerrors.ErrorTypeObjectNotFound)},
		{name: "malformed hash", hash: "xyz", wantStatus: http.StatusBadRequest, wantType: string(cerrors.ErrorTypeInvalidHash)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/api/objects/"+tt.hash)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantType == "" {
				assert.Equal(t, "payload", rec.Body.String())
				assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
				return
			}
			assert.Equal(t, tt.wantType, decode[shared.ErrorResponse](t, rec).Type)
			assert.Equal(t, tt.wantType, rec.Header().Get(middleware.ErrorTypeHeader))
		})
	}
}

func TestReadOnly(t *testing.T) {
	h := NewRouter(setupRepo(t), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/log", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
