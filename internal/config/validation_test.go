package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.AdminAPI.JWT.Secret = "test-secret-key-for-testing-minimum-32-chars"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	err := Validate(validConfig())
	require.NoError(t, err)
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "LOUD"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_InvalidAdminAPIPort(t *testing.T) {
	cfg := validConfig()
	cfg.AdminAPI.Port = 70000

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max")
}

func TestValidate_TelemetryEnabledWithoutEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry")
}

func TestValidate_TelemetrySampleRateOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.SampleRate = 1.5

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_MissingStorageRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Root = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.root")
}

func TestValidate_S3BackendRequiresBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "s3"
	cfg.Storage.S3.Region = "us-east-1"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.s3.bucket")
}

func TestValidate_S3BackendRequiresRegionOrEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "s3"
	cfg.Storage.S3.Bucket = "my-bucket"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestValidate_UnsupportedStorageBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "azure"

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_MissingAdminSecret(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.AdminAPI.JWT.Secret = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "secret")
}

func TestValidate_ShortAdminSecret(t *testing.T) {
	cfg := validConfig()
	cfg.AdminAPI.JWT.Secret = "too-short"

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_CacheEnabledRequiresDir(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Cache.Enabled = true
	cfg.Storage.Cache.Dir = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.cache.dir")
}
