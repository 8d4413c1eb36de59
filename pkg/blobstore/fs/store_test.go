package fs

import (
	"context"
	"io"
	"testing"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{BasePath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestWriteThenRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	w, err := s.NewWriter(ctx, "bucket", "entity-1")
	require.NoError(t, err)
	_, err = w.Write([]byte("test data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := s.Reader(ctx, "bucket", "entity-1")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "test data", string(data))
}

func TestReader_NotFound(t *testing.T) {
	_, err := newTestStore(t).Reader(context.Background(), "bucket", "missing")
	require.Error(t, err)
	assert.True(t, storeerr.IsNotFound(err))
}

func TestAbort_RemovesScratch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	w, err := s.NewWriter(ctx, "bucket", "entity-1")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort(nil))

	_, err = s.Reader(ctx, "bucket", "entity-1")
	assert.True(t, storeerr.IsNotFound(err))
}

func TestDoubleClose_Fails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	w, err := s.NewWriter(ctx, "bucket", "entity-1")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.True(t, storeerr.IsClosed(w.Close()))
}

func TestRemove_IdempotentOnAbsence(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Remove(context.Background(), "bucket", "never-existed"))
}

func TestStat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	w, err := s.NewWriter(ctx, "bucket", "entity-1")
	require.NoError(t, err)
	_, _ = w.Write([]byte("12345"))
	require.NoError(t, w.Close())

	size, err := s.Stat(ctx, "bucket", "entity-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
}
