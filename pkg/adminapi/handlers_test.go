package adminapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketfs/bucketfs/pkg/registry"
)

func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()
	reg, err := registry.New(&registry.Config{
		Type:   registry.DatabaseTypeSQLite,
		SQLite: registry.SQLiteConfig{Path: filepath.Join(t.TempDir(), "registry.db")},
	})
	require.NoError(t, err)

	svc := testJWTService(t)
	token, _, err := svc.IssueToken("test-operator")
	require.NoError(t, err)

	return NewRouter(reg, svc), token
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var bodyReader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(raw)
	} else {
		bodyReader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, bodyReader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthLiveness_Unauthenticated(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doRequest(t, handler, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBucketRoutes_RequireAuth(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/buckets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGetBucket(t *testing.T) {
	handler, token := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/buckets", token, createBucketRequest{
		Name:        "photos",
		StorageRoot: "/var/lib/bucketfs/photos",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/buckets/photos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateBucket_DuplicateNameConflicts(t *testing.T) {
	handler, token := newTestServer(t)
	req := createBucketRequest{Name: "photos", StorageRoot: "/a"}

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/buckets", token, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/buckets", token, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBucket_InvalidNameRejected(t *testing.T) {
	handler, token := newTestServer(t)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/buckets", token, createBucketRequest{
		Name:        "ab",
		StorageRoot: "/a",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBucket_NotFound(t *testing.T) {
	handler, token := newTestServer(t)
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/buckets/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListBuckets(t *testing.T) {
	handler, token := newTestServer(t)
	doRequest(t, handler, http.MethodPost, "/api/v1/buckets", token, createBucketRequest{Name: "alpha", StorageRoot: "/a"})
	doRequest(t, handler, http.MethodPost, "/api/v1/buckets", token, createBucketRequest{Name: "zebra", StorageRoot: "/z"})

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/buckets", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "alpha", body.Data[0].Name)
}

func TestDeleteBucket(t *testing.T) {
	handler, token := newTestServer(t)
	doRequest(t, handler, http.MethodPost, "/api/v1/buckets", token, createBucketRequest{Name: "photos", StorageRoot: "/a"})

	rec := doRequest(t, handler, http.MethodDelete, "/api/v1/buckets/photos", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/buckets/photos", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
