package adminapi

import (
	"os"
	"time"

	"github.com/bucketfs/bucketfs/internal/logger"
)

// EnvAdminSecret is the environment variable holding the admin API's
// JWT signing secret. It takes precedence over Config.JWT.Secret.
const EnvAdminSecret = "BUCKETFS_ADMIN_SECRET"

// Config configures the admin HTTP API.
type Config struct {
	// Port is the HTTP port the admin API listens on. Default: 8090.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout bounds reading the entire request. Default: 10s.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds writing the response. Default: 10s.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive idling. Default: 60s.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig configures the bearer token the admin API requires.
type JWTConfig struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	Secret string `mapstructure:"secret" yaml:"secret"`

	// TokenDuration is the lifetime of an issued token. Default: 1h.
	TokenDuration time.Duration `mapstructure:"token_duration" yaml:"token_duration"`
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.JWT.TokenDuration == 0 {
		c.JWT.TokenDuration = time.Hour
	}
}

// Secret returns the configured JWT secret, preferring the
// environment variable over the config file value.
func (c *Config) Secret() string {
	if env := os.Getenv(EnvAdminSecret); env != "" {
		if c.JWT.Secret != "" && c.JWT.Secret != env {
			logger.Warn("admin API JWT secret from environment overrides config file value", "env_var", EnvAdminSecret)
		}
		return env
	}
	return c.JWT.Secret
}
