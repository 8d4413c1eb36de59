package bucketname

import (
	"testing"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Accepts(t *testing.T) {
	for _, s := range []string{"photos", "my-bucket", "a1b2c3", "abcdefghij"} {
		n, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, n.String())
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []string{
		"",
		"ab",           // too short
		"-leading",     // leading hyphen
		"trailing-",    // trailing hyphen
		"Has_Upper",    // uppercase and underscore
		"has spaces",   // whitespace
	}
	for _, s := range cases {
		_, err := Parse(s)
		require.Error(t, err, s)
		assert.True(t, storeerr.Is(err, storeerr.InvalidBucketName), s)
	}
}
