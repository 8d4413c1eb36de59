// Package config loads process-level configuration for the bucketfs
// daemon: logging, tracing, metrics, the admin HTTP API, the bucket
// registry backend, and the default storage settings applied to
// buckets that don't override them.
//
// Per-bucket Manager construction options are not part of this file;
// they are a plain Go struct passed by whatever caller opens a bucket
// (pkg/manager.Option). This package only configures the ambient
// binary in cmd/.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bucketfs/bucketfs/internal/bytesize"
	"github.com/bucketfs/bucketfs/internal/logger"
	"github.com/bucketfs/bucketfs/internal/telemetry"
	"github.com/bucketfs/bucketfs/pkg/adminapi"
	"github.com/bucketfs/bucketfs/pkg/registry"
)

// Config is the top-level process configuration.
//
// Configuration sources, in order of precedence:
//  1. CLI flags (highest priority)
//  2. Environment variables (BUCKETFS_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior.
	Logging logger.Config `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry telemetry.Config `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Registry configures the bucket administrative index.
	Registry registry.Config `mapstructure:"registry" yaml:"registry"`

	// AdminAPI configures the admin HTTP API server.
	AdminAPI adminapi.Config `mapstructure:"admin_api" yaml:"admin_api"`

	// Metrics controls Prometheus metrics collection.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Storage holds the defaults applied to newly created buckets that
	// don't override them.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
}

// MetricsConfig configures Prometheus metrics collection. When
// Enabled is false, pkg/metricsx.New returns nil and every recording
// call is a no-op.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the configured HTTP port for a metrics endpoint. No command
	// in this repository starts a listener on it.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// StorageConfig holds the default storage settings applied to a
// bucket's blob store and catalog when a bucket's own configuration
// doesn't override them.
type StorageConfig struct {
	// Root is the base directory newly created filesystem-backed
	// buckets are rooted under, one subdirectory per bucket.
	Root string `mapstructure:"root" yaml:"root"`

	// MaxFileSize is the configured per-file size limit. No code path
	// checks file sizes against it. Supports human-readable formats: "1GB", "512MB", "10Gi".
	MaxFileSize bytesize.ByteSize `mapstructure:"max_file_size" yaml:"max_file_size,omitempty"`

	// MaxDescriptionSize caps the length, in characters, of a file's
	// free-text description.
	MaxDescriptionSize int `mapstructure:"max_description_size" yaml:"max_description_size"`

	// MaxMetadataJSONSize caps the size, in bytes, of a file's
	// encoded JSON metadata.
	MaxMetadataJSONSize int `mapstructure:"max_metadata_json_size" yaml:"max_metadata_json_size"`

	// Cache configures the optional read-through blob cache
	// (pkg/blobstore/cache), which wraps whichever backend is selected
	// when Enabled is set.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Backend selects the blob store backend new buckets use:
	// "fs" or "s3".
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=fs s3" yaml:"backend"`

	// S3 configures the S3-compatible blob backend, used when
	// Backend is "s3".
	S3 S3Config `mapstructure:"s3" yaml:"s3"`
}

// CacheConfig configures the BadgerDB-backed read-through blob cache.
type CacheConfig struct {
	// Enabled controls whether reads are cached locally.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Dir is the BadgerDB data directory.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// MaxCachedEntitySize caps how large a blob may be before it is
	// skipped by the cache. Zero means unbounded.
	MaxCachedEntitySize bytesize.ByteSize `mapstructure:"max_cached_entity_size" yaml:"max_cached_entity_size,omitempty"`
}

// S3Config configures the S3-compatible blob backend.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`
	Region          string `mapstructure:"region" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path in YAML form, creating parent
// directories as needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BUCKETFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bucketfs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "bucketfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
