package jsoncodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RoundTrip(t *testing.T) {
	in := map[string]any{"a": float64(1), "b": "two"}

	data, err := Default.Marshal(in)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, Default.Unmarshal(data, &out))

	assert.Equal(t, in, out)
}
