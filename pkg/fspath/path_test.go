package fspath

import (
	"strings"
	"testing"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"file.txt",
		"a/file1.txt",
		"a/b/file1.txt",
		"b/c/d/file1.txt",
		".bashrc",
	}
	for _, raw := range cases {
		p, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, p.String())
	}
}

func TestParse_RejectsOversize(t *testing.T) {
	raw := strings.Repeat("a", MaxLength+1)
	_, err := Parse(raw)
	require.Error(t, err)
	assert.True(t, storeerr.Is(err, storeerr.InvalidPath))
}

func TestParse_RejectsInvalidUTF8(t *testing.T) {
	_, err := Parse(string([]byte{0xff, 0xfe}))
	require.Error(t, err)
	assert.True(t, storeerr.Is(err, storeerr.InvalidPath))
}

func TestDerivedAttributes(t *testing.T) {
	p, err := Parse("a/b/file1.tar.gz")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "file1.tar.gz"}, p.Segments())
	assert.Equal(t, "a/b", p.Dirname())
	assert.Equal(t, "file1.tar.gz", p.Basename())
	assert.Equal(t, "file1.tar", p.Filename())
	assert.Equal(t, ".gz", p.Extname())
	assert.Equal(t, 3, p.Depth())
	assert.False(t, p.IsRoot())
}

func TestDotfileHasNoExtension(t *testing.T) {
	p, err := Parse(".bashrc")
	require.NoError(t, err)

	assert.Equal(t, ".bashrc", p.Filename())
	assert.Equal(t, "", p.Extname())
}

func TestRootPath(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)

	assert.True(t, p.IsRoot())
	assert.Equal(t, 0, p.Depth())
	assert.Equal(t, "", p.Dirname())
	assert.Equal(t, "", p.Basename())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a/b/c", Join([]string{"a", "b", "c"}))
	assert.Equal(t, "", Join(nil))
}
