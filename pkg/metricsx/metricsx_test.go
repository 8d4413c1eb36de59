package metricsx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafeBeforeInit(t *testing.T) {
	assert.False(t, IsEnabled())
	assert.Nil(t, New())

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCatalogOperation("read", time.Millisecond, nil)
		m.ObserveBlobOperation("get", "fs", 1024, time.Millisecond, errors.New("boom"))
		m.RecordMutexQueueDepth("bucket-a", 3)
		m.ObserveMutexWait("bucket-a", "write", time.Millisecond)
	})
}

func TestMetrics_RecordsAfterInit(t *testing.T) {
	InitRegistry()
	require.True(t, IsEnabled())

	m := New()
	require.NotNil(t, m)

	assert.NotPanics(t, func() {
		m.ObserveCatalogOperation("create", 2*time.Millisecond, nil)
		m.ObserveCatalogOperation("create", time.Millisecond, errors.New("conflict"))
		m.ObserveBlobOperation("put", "s3", 4096, 5*time.Millisecond, nil)
		m.RecordMutexQueueDepth("bucket-a", 1)
		m.ObserveMutexWait("bucket-a", "read", 500*time.Microsecond)
	})

	families, err := GetRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
