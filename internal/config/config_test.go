package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_AppliesDefaultsOverPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
logging:
  level: DEBUG
admin_api:
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8090, cfg.AdminAPI.Port)
}

func TestLoad_NoConfigFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nonexistent.yaml")

	cfg, err := Load(missing)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "fs", cfg.Storage.Backend)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "logging:\n  level: [[[not yaml\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
logging:
  level: NOT_A_LEVEL
admin_api:
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ByteSizeFieldsParseHumanReadableStrings(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
storage:
  max_file_size: "2GiB"
  cache:
    max_cached_entity_size: "128Mi"
admin_api:
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(2*1024*1024*1024), cfg.Storage.MaxFileSize.Uint64())
	assert.Equal(t, uint64(128*1024*1024), cfg.Storage.Cache.MaxCachedEntitySize.Uint64())
}

func TestSaveConfig_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := validConfig()
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage.Backend, loaded.Storage.Backend)
	assert.Equal(t, cfg.AdminAPI.Port, loaded.AdminAPI.Port)
}

func TestGetDefaultConfigPath_UsesXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := GetDefaultConfigPath()
	assert.Equal(t, filepath.Join(dir, "bucketfs", "config.yaml"), path)
}
