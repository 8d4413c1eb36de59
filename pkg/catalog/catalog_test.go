package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	e := New(dbPath, WithBucket("test-bucket"))
	require.NoError(t, e.Connect(context.Background()))
	t.Cleanup(func() { _ = e.Disconnect(context.Background()) })
	return e
}

func TestConnect_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Connect(context.Background()))
	assert.True(t, e.Connected())
}

func TestCreateAndRead(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	err := e.Create(ctx, "file.txt", CreateInput{
		EntityID: "11111111-1111-4111-8111-111111111111",
		Checksum: "abc123",
		FileSize: 9,
	})
	require.NoError(t, err)

	rec, err := e.Read(ctx, "file.txt")
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", rec.EntityID)
	assert.Equal(t, int64(9), rec.FileSize)
	assert.Equal(t, "text/plain", rec.MimeType)
}

func TestRead_NotFound(t *testing.T) {
	_, err := newTestEngine(t).Read(context.Background(), "missing.txt")
	require.Error(t, err)
	assert.True(t, storeerr.IsNotFound(err))
}

func TestCreate_DuplicateFullpath(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	in := CreateInput{EntityID: "11111111-1111-4111-8111-111111111111", Checksum: "x", FileSize: 1}
	require.NoError(t, e.Create(ctx, "a.txt", in))

	in2 := in
	in2.EntityID = "22222222-2222-4222-8222-222222222222"
	err := e.Create(ctx, "a.txt", in2)
	require.Error(t, err)
	assert.True(t, storeerr.IsAlreadyExists(err))
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Create(ctx, "a.txt", CreateInput{EntityID: "11111111-1111-4111-8111-111111111111", Checksum: "x", FileSize: 1}))

	require.NoError(t, e.Move(ctx, "a.txt", "b.txt"))

	_, err := e.Read(ctx, "a.txt")
	assert.True(t, storeerr.IsNotFound(err))
	rec, err := e.Read(ctx, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", rec.EntityID)
}

func TestMove_SourceMissing(t *testing.T) {
	err := newTestEngine(t).Move(context.Background(), "missing.txt", "b.txt")
	assert.True(t, storeerr.IsNotFound(err))
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Create(ctx, "a.txt", CreateInput{EntityID: "11111111-1111-4111-8111-111111111111", Checksum: "x", FileSize: 1}))

	require.NoError(t, e.Copy(ctx, "a.txt", "b.txt", "22222222-2222-4222-8222-222222222222"))

	recA, err := e.Read(ctx, "a.txt")
	require.NoError(t, err)
	recB, err := e.Read(ctx, "b.txt")
	require.NoError(t, err)
	assert.NotEqual(t, recA.EntityID, recB.EntityID)
}

func TestUpdate_EmptyVerifiesExistence(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Create(ctx, "a.txt", CreateInput{EntityID: "11111111-1111-4111-8111-111111111111", Checksum: "x", FileSize: 1}))

	require.NoError(t, e.Update(ctx, "a.txt", UpdateInput{}))
	assert.True(t, storeerr.IsNotFound(e.Update(ctx, "missing.txt", UpdateInput{})))
}

func TestUpdate_OptimisticConcurrencyGuard(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Create(ctx, "a.txt", CreateInput{EntityID: "11111111-1111-4111-8111-111111111111", Checksum: "x", FileSize: 1}))

	err := e.Update(ctx, "a.txt", UpdateInput{
		NewEntityID: Some("22222222-2222-4222-8222-222222222222"),
		OldEntityID: Some("99999999-9999-4999-8999-999999999999"), // stale
	})
	assert.True(t, storeerr.IsNotFound(err))

	rec, err := e.Read(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", rec.EntityID)
}

func TestUpdate_ClearsDescription(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	desc := "hello"
	require.NoError(t, e.Create(ctx, "a.txt", CreateInput{EntityID: "11111111-1111-4111-8111-111111111111", Checksum: "x", FileSize: 1, Description: &desc}))

	require.NoError(t, e.Update(ctx, "a.txt", UpdateInput{Description: Some[*string](nil)}))

	got, err := e.ReadDescription(ctx, "a.txt")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Create(ctx, "a.txt", CreateInput{EntityID: "11111111-1111-4111-8111-111111111111", Checksum: "x", FileSize: 1}))

	require.NoError(t, e.Delete(ctx, "a.txt"))
	assert.True(t, storeerr.IsNotFound(e.Delete(ctx, "a.txt")))
}

func TestExistsAndStat(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	for _, p := range []string{"file1.txt", "a/file1.txt", "a/b/file1.txt", "b/c/d/file1.txt"} {
		require.NoError(t, e.Create(ctx, p, CreateInput{EntityID: newUUIDLike(p), Checksum: "x", FileSize: 1}))
	}

	isFile, isDir, err := e.Stat(ctx, "file1.txt")
	require.NoError(t, err)
	assert.True(t, isFile)
	assert.False(t, isDir)

	isFile, isDir, err = e.Stat(ctx, "a")
	require.NoError(t, err)
	assert.False(t, isFile)
	assert.True(t, isDir)

	exists, err := e.ExistsDir(ctx, nil)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestList_RootOrdering(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	for _, p := range []string{"file1.txt", "a/file1.txt", "a/b/file1.txt", "b/c/d/file1.txt"} {
		require.NoError(t, e.Create(ctx, p, CreateInput{EntityID: newUUIDLike(p), Checksum: "x", FileSize: 1}))
	}

	entries, err := e.List(ctx, nil, -1, 0, "ASC")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Name)
	assert.False(t, entries[0].IsFile)
	assert.Equal(t, "b", entries[1].Name)
	assert.False(t, entries[1].IsFile)
	assert.Equal(t, "file1.txt", entries[2].Name)
	assert.True(t, entries[2].IsFile)
}

func TestList_LimitZeroIsEmpty(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Create(ctx, "a.txt", CreateInput{EntityID: newUUIDLike("a"), Checksum: "x", FileSize: 1}))

	entries, err := e.List(ctx, nil, 0, 0, "ASC")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_OffsetBeyondResultsIsEmpty(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Create(ctx, "a.txt", CreateInput{EntityID: newUUIDLike("a"), Checksum: "x", FileSize: 1}))

	entries, err := e.List(ctx, nil, -1, 100, "ASC")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSearch_RanksByDescendingScore(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	descs := map[string]string{
		"path/to/one.txt":   "foo",
		"path/to/two.txt":   "foo foo foo bar baz",
		"path/to/three.txt": "foo foo bar bar",
	}
	for p, d := range descs {
		d := d
		require.NoError(t, e.Create(ctx, p, CreateInput{EntityID: newUUIDLike(p), Checksum: "x", FileSize: 1, Description: &d}))
	}

	results, err := e.Search(ctx, []string{"path", "to"}, "foo", 0, false, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "path/to/one.txt", results[0].FilePath)
}

func TestCreate_DescriptionExceedsLimit(t *testing.T) {
	ctx := context.Background()
	e := New(filepath.Join(t.TempDir(), "c.db"), WithBucket("b"), WithMaxDescriptionSize(16))
	require.NoError(t, e.Connect(ctx))
	t.Cleanup(func() { _ = e.Disconnect(ctx) })

	tooLong := "foobarfoobarfoobar" // 18 chars
	ok := "12345678" // 8 chars

	err := e.Create(ctx, "a.txt", CreateInput{EntityID: newUUIDLike("a"), Checksum: "x", FileSize: 1, Description: &tooLong})
	assert.Error(t, err)

	err = e.Create(ctx, "b.txt", CreateInput{EntityID: newUUIDLike("b"), Checksum: "x", FileSize: 1, Description: &ok})
	assert.NoError(t, err)
}

// newUUIDLike derives a deterministic, version-4-shaped placeholder id
// from seed so tests don't need a real UUID generator.
func newUUIDLike(seed string) string {
	h := [16]byte{}
	for i := range h {
		h[i] = byte(i) ^ byte(len(seed))
		if len(seed) > 0 {
			h[i] ^= seed[i%len(seed)]
		}
	}
	h[6] = (h[6] & 0x0f) | 0x40
	h[8] = (h[8] & 0x3f) | 0x80
	return formatUUID(h)
}

func formatUUID(h [16]byte) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 36)
	dashes := map[int]bool{8: true, 13: true, 18: true, 23: true}
	j := 0
	for i := 0; i < 36; i++ {
		if dashes[i] {
			buf[i] = '-'
			continue
		}
		b := h[j/2]
		if j%2 == 0 {
			buf[i] = hexDigits[b>>4]
		} else {
			buf[i] = hexDigits[b&0x0f]
		}
		j++
	}
	return string(buf)
}
