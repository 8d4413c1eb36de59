package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/bucketfs/bucketfs/pkg/adminapi"
)

var validate = validator.New()

// Validate checks a fully defaulted Config for internal consistency
// beyond what struct tags alone can express: cross-field rules and
// backend-specific requirements.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("struct validation: %w", err)
	}

	if err := cfg.Registry.Validate(); err != nil {
		return err
	}

	if cfg.Storage.Root == "" {
		return fmt.Errorf("storage.root is required")
	}

	switch cfg.Storage.Backend {
	case "fs":
		// no additional requirements; Root is shared with fs buckets
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.backend is \"s3\"")
		}
		if cfg.Storage.S3.Region == "" && cfg.Storage.S3.Endpoint == "" {
			return fmt.Errorf("storage.s3.region or storage.s3.endpoint is required when storage.backend is \"s3\"")
		}
	default:
		return fmt.Errorf("storage.backend must be \"fs\" or \"s3\", got %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Cache.Enabled && cfg.Storage.Cache.Dir == "" {
		return fmt.Errorf("storage.cache.dir is required when storage.cache.enabled is true")
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry.enabled is true")
	}

	secret := cfg.AdminAPI.Secret()
	if secret == "" {
		return fmt.Errorf("admin_api.jwt.secret is required (or set %s)", adminapi.EnvAdminSecret)
	}
	if len(secret) < 32 {
		return fmt.Errorf("admin_api.jwt.secret must be at least 32 characters")
	}

	return nil
}
