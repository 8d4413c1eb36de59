package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDefaultConfig_PassesValidationOnceSecretIsSet(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.AdminAPI.JWT.Secret = "test-secret-key-for-testing-minimum-32-chars"
	assert.NoError(t, Validate(cfg))
}

func TestApplyDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "ERROR"
	cfg.Storage.Backend = "s3"

	ApplyDefaults(cfg)

	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, "s3", cfg.Storage.Backend)
}

func TestApplyDefaults_RegistryDefaultsToSQLite(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	assert.Equal(t, "sqlite", string(cfg.Registry.Type))
	assert.NotEmpty(t, cfg.Registry.SQLite.Path)
}

func TestApplyDefaults_StorageCacheDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	assert.NotEmpty(t, cfg.Storage.Cache.Dir)
	assert.Equal(t, uint64(64*1024*1024), cfg.Storage.Cache.MaxCachedEntitySize.Uint64())
}

func TestApplyDefaults_TelemetryDefaultsMatchPackageDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	assert.Equal(t, "bucketfs", cfg.Telemetry.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
}
