package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "registry.db")},
	})
	require.NoError(t, err)
	return r
}

func TestCreateAndGetBucket(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	b, err := r.CreateBucket(ctx, "11111111-1111-4111-8111-111111111111", "photos", "/var/lib/bucketfs/photos")
	require.NoError(t, err)
	assert.Equal(t, "photos", b.Name)

	got, err := r.GetBucket(ctx, "photos")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/bucketfs/photos", got.StorageRoot)
	assert.Nil(t, got.LastOpenedAt)
}

func TestCreateBucket_DuplicateNameFailsFileExists(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	_, err := r.CreateBucket(ctx, "11111111-1111-4111-8111-111111111111", "photos", "/a")
	require.NoError(t, err)

	_, err = r.CreateBucket(ctx, "22222222-2222-4222-8222-222222222222", "photos", "/b")
	require.Error(t, err)
	assert.True(t, storeerr.IsAlreadyExists(err))
}

func TestGetBucket_NotFound(t *testing.T) {
	_, err := newTestRegistry(t).GetBucket(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, storeerr.IsNotFound(err))
}

func TestListBuckets_OrderedByName(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	_, err := r.CreateBucket(ctx, "11111111-1111-4111-8111-111111111111", "zebra", "/z")
	require.NoError(t, err)
	_, err = r.CreateBucket(ctx, "22222222-2222-4222-8222-222222222222", "alpha", "/a")
	require.NoError(t, err)

	buckets, err := r.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "alpha", buckets[0].Name)
	assert.Equal(t, "zebra", buckets[1].Name)
}

func TestDeleteBucket(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	_, err := r.CreateBucket(ctx, "11111111-1111-4111-8111-111111111111", "photos", "/a")
	require.NoError(t, err)

	require.NoError(t, r.DeleteBucket(ctx, "photos"))

	_, err = r.GetBucket(ctx, "photos")
	assert.True(t, storeerr.IsNotFound(err))
}

func TestDeleteBucket_NotFound(t *testing.T) {
	err := newTestRegistry(t).DeleteBucket(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, storeerr.IsNotFound(err))
}

func TestTouchLastOpened(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	_, err := r.CreateBucket(ctx, "11111111-1111-4111-8111-111111111111", "photos", "/a")
	require.NoError(t, err)

	require.NoError(t, r.TouchLastOpened(ctx, "photos"))

	got, err := r.GetBucket(ctx, "photos")
	require.NoError(t, err)
	require.NotNil(t, got.LastOpenedAt)
}
