package config

import (
	"path/filepath"
	"time"

	"github.com/bucketfs/bucketfs/internal/bytesize"
	"github.com/bucketfs/bucketfs/internal/telemetry"
)

// GetDefaultConfig returns a fully populated Config with every field
// set to its default value.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields of cfg with defaults. It
// is safe to call on a partially populated Config, e.g. one just
// unmarshaled from a config file that only overrides a few fields.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(cfg)
	applyTelemetryDefaults(cfg)
	applyShutdownDefaults(cfg)
	applyRegistryDefaults(cfg)
	applyAdminAPIDefaults(cfg)
	applyMetricsDefaults(cfg)
	applyStorageDefaults(cfg)
}

func applyLoggingDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *Config) {
	defaults := telemetry.DefaultConfig()
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = defaults.ServiceName
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = defaults.ServiceVersion
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = defaults.Endpoint
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = defaults.SampleRate
	}
}

func applyShutdownDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyRegistryDefaults(cfg *Config) {
	cfg.Registry.ApplyDefaults()
}

func applyAdminAPIDefaults(cfg *Config) {
	if cfg.AdminAPI.Port == 0 {
		cfg.AdminAPI.Port = 8090
	}
	if cfg.AdminAPI.ReadTimeout == 0 {
		cfg.AdminAPI.ReadTimeout = 10 * time.Second
	}
	if cfg.AdminAPI.WriteTimeout == 0 {
		cfg.AdminAPI.WriteTimeout = 10 * time.Second
	}
	if cfg.AdminAPI.IdleTimeout == 0 {
		cfg.AdminAPI.IdleTimeout = 60 * time.Second
	}
	if cfg.AdminAPI.JWT.TokenDuration == 0 {
		cfg.AdminAPI.JWT.TokenDuration = time.Hour
	}
}

func applyMetricsDefaults(cfg *Config) {
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = filepath.Join(getDataDir(), "buckets")
	}
	if cfg.Storage.MaxDescriptionSize == 0 {
		cfg.Storage.MaxDescriptionSize = 4096
	}
	if cfg.Storage.MaxMetadataJSONSize == 0 {
		cfg.Storage.MaxMetadataJSONSize = 16384
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "fs"
	}
	if cfg.Storage.Cache.Dir == "" {
		cfg.Storage.Cache.Dir = filepath.Join(getDataDir(), "cache")
	}
	if cfg.Storage.Cache.MaxCachedEntitySize == 0 {
		cfg.Storage.Cache.MaxCachedEntitySize = 64 * bytesize.MiB
	}
}

func getDataDir() string {
	return filepath.Join(filepath.Dir(GetDefaultConfigPath()), "data")
}
