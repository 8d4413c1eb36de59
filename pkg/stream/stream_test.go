package stream

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/bucketfs/bucketfs/pkg/blobstore"
	"github.com/bucketfs/bucketfs/pkg/catalog"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	buf      bytes.Buffer
	closed   bool
	aborted  bool
	closeErr error
}

func (w *fakeWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *fakeWriter) Close() error {
	w.closed = true
	return w.closeErr
}
func (w *fakeWriter) Abort(reason error) error {
	w.aborted = true
	return nil
}

type fakeBlobStore struct {
	writers map[string]*fakeWriter
	removed map[string]bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{writers: map[string]*fakeWriter{}, removed: map[string]bool{}}
}

func (f *fakeBlobStore) NewWriter(ctx context.Context, bucket, entityID string) (blobstore.Writer, error) {
	w := &fakeWriter{}
	f.writers[entityID] = w
	return w, nil
}

func (f *fakeBlobStore) Reader(ctx context.Context, bucket, entityID string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.writers[entityID].buf.Bytes())), nil
}

func (f *fakeBlobStore) Remove(ctx context.Context, bucket, entityID string) error {
	f.removed[entityID] = true
	return nil
}

func (f *fakeBlobStore) Stat(ctx context.Context, bucket, entityID string) (int64, error) {
	return int64(f.writers[entityID].buf.Len()), nil
}

type fakeCreator struct {
	err   error
	calls []catalog.CreateInput
}

func (f *fakeCreator) Create(ctx context.Context, filePath string, in catalog.CreateInput) error {
	f.calls = append(f.calls, in)
	return f.err
}

type fakeUpdater struct {
	err   error
	calls []catalog.UpdateInput
}

func (f *fakeUpdater) Update(ctx context.Context, filePath string, in catalog.UpdateInput) error {
	f.calls = append(f.calls, in)
	return f.err
}

type openFlag struct{ open bool }

func (o openFlag) Opened() bool { return o.open }

func TestWritableFileStream_WriteThenClose(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "e1")
	cat := &fakeCreator{}

	s := NewWritableFileStream(ctx, blobs, cat, openFlag{true}, "bucket", "file.txt", "e1", w.(*fakeWriter), Options{})
	require.NoError(t, s.Write([]byte("test data")))
	require.NoError(t, s.Close())

	require.Len(t, cat.calls, 1)
	assert.Equal(t, int64(9), cat.calls[0].FileSize)
	assert.Equal(t, "e1", cat.calls[0].EntityID)
	assert.True(t, blobs.writers["e1"].closed)
	assert.False(t, blobs.removed["e1"])
}

func TestWritableFileStream_EmptyChunkNoOp(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "e1")
	cat := &fakeCreator{}
	s := NewWritableFileStream(ctx, blobs, cat, openFlag{true}, "bucket", "file.txt", "e1", w.(*fakeWriter), Options{})

	require.NoError(t, s.Write(nil))
	require.NoError(t, s.Close())
	assert.Equal(t, int64(0), cat.calls[0].FileSize)
}

func TestWritableFileStream_CreateFailureRemovesBlob(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "e1")
	cat := &fakeCreator{err: storeerr.NewFileExists("bucket", "file.txt")}
	s := NewWritableFileStream(ctx, blobs, cat, openFlag{true}, "bucket", "file.txt", "e1", w.(*fakeWriter), Options{})

	require.NoError(t, s.Write([]byte("x")))
	err := s.Close()
	require.Error(t, err)
	assert.True(t, blobs.removed["e1"])
}

func TestWritableFileStream_DoubleCloseFails(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "e1")
	s := NewWritableFileStream(ctx, blobs, &fakeCreator{}, openFlag{true}, "bucket", "file.txt", "e1", w.(*fakeWriter), Options{})

	require.NoError(t, s.Close())
	assert.True(t, storeerr.IsClosed(s.Close()))
}

func TestWritableFileStream_WriteAfterManagerClosedFailsClosed(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "e1")
	flag := openFlag{false}
	s := NewWritableFileStream(ctx, blobs, &fakeCreator{}, flag, "bucket", "file.txt", "e1", w.(*fakeWriter), Options{})

	err := s.Write([]byte("x"))
	require.Error(t, err)
	assert.True(t, storeerr.IsClosed(err))
	assert.True(t, blobs.writers["e1"].aborted)
	assert.True(t, blobs.removed["e1"])
}

func TestOverwritableFileStream_MetadataOnlyClose(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "new-id")
	upd := &fakeUpdater{}
	desc := "updated"
	s := NewOverwritableFileStream(ctx, blobs, upd, openFlag{true}, "bucket", "file.txt", "old-id", "new-id", w.(*fakeWriter), Options{
		Description: &desc, HasDescription: true,
	})

	require.NoError(t, s.Close())
	require.Len(t, upd.calls, 1)
	assert.False(t, upd.calls[0].NewEntityID.IsSet())
	assert.True(t, blobs.writers["new-id"].aborted)
	assert.False(t, blobs.removed["old-id"])
}

func TestOverwritableFileStream_FullRotation(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "new-id")
	upd := &fakeUpdater{}
	s := NewOverwritableFileStream(ctx, blobs, upd, openFlag{true}, "bucket", "file.txt", "old-id", "new-id", w.(*fakeWriter), Options{})

	require.NoError(t, s.Write([]byte("new content")))
	require.NoError(t, s.Close())

	require.Len(t, upd.calls, 1)
	assert.True(t, upd.calls[0].NewEntityID.IsSet())
	assert.Equal(t, "new-id", upd.calls[0].NewEntityID.Value())
	assert.Equal(t, "old-id", upd.calls[0].OldEntityID.Value())
	assert.True(t, blobs.removed["old-id"])
	assert.False(t, blobs.removed["new-id"])
}

func TestOverwritableFileStream_UpdateFailureRemovesNewBlobKeepsOld(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "new-id")
	upd := &fakeUpdater{err: storeerr.NewFileNotFound("bucket", "file.txt")}
	s := NewOverwritableFileStream(ctx, blobs, upd, openFlag{true}, "bucket", "file.txt", "old-id", "new-id", w.(*fakeWriter), Options{})

	require.NoError(t, s.Write([]byte("new content")))
	err := s.Close()
	require.Error(t, err)
	assert.True(t, blobs.removed["new-id"])
	assert.False(t, blobs.removed["old-id"])
}

func TestOverwritableFileStream_DoubleAbortFails(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	w, _ := blobs.NewWriter(ctx, "bucket", "new-id")
	s := NewOverwritableFileStream(ctx, blobs, &fakeUpdater{}, openFlag{true}, "bucket", "file.txt", "old-id", "new-id", w.(*fakeWriter), Options{})

	require.NoError(t, s.Abort(nil))
	assert.True(t, storeerr.IsClosed(s.Abort(nil)))
	assert.True(t, blobs.removed["new-id"])
}
