// Package registry is the bucket administrative index: an
// independent, slower-moving store recording which buckets exist,
// where each one's catalog and blob store live, and when each was
// created and last opened. It never touches per-file metadata — that
// is pkg/catalog's concern, one database per bucket.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bucketfs/bucketfs/pkg/registry/migrations"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

// DatabaseType selects the registry's storage backend.
type DatabaseType string

const (
	// DatabaseTypeSQLite is the embedded, single-node default.
	DatabaseTypeSQLite DatabaseType = "sqlite"
	// DatabaseTypePostgres is the HA-capable production backend.
	DatabaseTypePostgres DatabaseType = "postgres"
)

// SQLiteConfig configures the embedded backend.
type SQLiteConfig struct {
	// Path is the registry database file. Default: <XDG_CONFIG_HOME>/bucketfs/registry.db
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Database     string `mapstructure:"database" yaml:"database"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"password"`
	SSLMode      string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// Config selects and configures the registry's storage backend.
type Config struct {
	Type     DatabaseType   `mapstructure:"type" yaml:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}
	if c.Type == DatabaseTypeSQLite && c.SQLite.Path == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			homeDir, _ := os.UserHomeDir()
			configDir = filepath.Join(homeDir, ".config")
		}
		c.SQLite.Path = filepath.Join(configDir, "bucketfs", "registry.db")
	}
	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 25
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 5
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("registry: sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("registry: postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("registry: postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("registry: postgres user is required")
		}
	default:
		return fmt.Errorf("registry: unsupported database type: %s", c.Type)
	}
	return nil
}

// Registry is the bucket administrative index.
type Registry struct {
	db     *gorm.DB
	config *Config
}

// New opens (creating if absent) the registry backend named by config,
// migrating it to the current schema. SQLite migrates via GORM's
// AutoMigrate; Postgres migrates via golang-migrate's embedded SQL
// files.
func New(config *Config) (*Registry, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0o755); err != nil {
			return nil, fmt.Errorf("registry: create database directory: %w", err)
		}
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		if err := runPostgresMigrations(config.Postgres.DSN()); err != nil {
			return nil, err
		}
		dialector = postgres.Open(config.Postgres.DSN())

	default:
		return nil, fmt.Errorf("registry: unsupported database type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("registry: connect: %w", err)
	}

	if config.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("registry: underlying db handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	} else {
		if err := db.AutoMigrate(AllModels()...); err != nil {
			return nil, fmt.Errorf("registry: auto-migrate: %w", err)
		}
	}

	return &Registry{db: db, config: config}, nil
}

func runPostgresMigrations(connString string) error {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("registry: open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{
		MigrationsTable: "registry_schema_migrations",
		DatabaseName:    "bucketfs",
	})
	if err != nil {
		return fmt.Errorf("registry: create postgres migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("registry: create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("registry: create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("registry: apply migrations: %w", err)
	}
	return nil
}

// DB returns the underlying GORM connection, for advanced queries or tests.
func (r *Registry) DB() *gorm.DB { return r.db }

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE constraint failed") ||
		strings.Contains(s, "duplicate key value violates unique constraint")
}

// CreateBucket records a newly provisioned bucket. name must already
// be validated by pkg/bucketname; storageRoot is the blob-store/catalog
// location the caller has prepared for it.
func (r *Registry) CreateBucket(ctx context.Context, id, name, storageRoot string) (Bucket, error) {
	b := Bucket{ID: id, Name: name, StorageRoot: storageRoot, CreatedAt: time.Now()}
	if err := r.db.WithContext(ctx).Create(&b).Error; err != nil {
		if isUniqueConstraintError(err) {
			return Bucket{}, storeerr.NewFileExists(name, "")
		}
		return Bucket{}, storeerr.NewOther(fmt.Sprintf("registry: create bucket: %v", err))
	}
	return b, nil
}

// GetBucket returns the bucket record named name.
func (r *Registry) GetBucket(ctx context.Context, name string) (Bucket, error) {
	var b Bucket
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Bucket{}, storeerr.NewFileNotFound(name, "")
	}
	if err != nil {
		return Bucket{}, storeerr.NewOther(fmt.Sprintf("registry: get bucket: %v", err))
	}
	return b, nil
}

// ListBuckets returns every known bucket, ordered by name.
func (r *Registry) ListBuckets(ctx context.Context) ([]Bucket, error) {
	var buckets []Bucket
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&buckets).Error; err != nil {
		return nil, storeerr.NewOther(fmt.Sprintf("registry: list buckets: %v", err))
	}
	return buckets, nil
}

// DeleteBucket removes a bucket's administrative record. It does not
// touch that bucket's catalog database or blob store; the caller is
// responsible for tearing those down first.
func (r *Registry) DeleteBucket(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&Bucket{})
	if res.Error != nil {
		return storeerr.NewOther(fmt.Sprintf("registry: delete bucket: %v", res.Error))
	}
	if res.RowsAffected == 0 {
		return storeerr.NewFileNotFound(name, "")
	}
	return nil
}

// TouchLastOpened records that name's manager was just opened.
func (r *Registry) TouchLastOpened(ctx context.Context, name string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&Bucket{}).Where("name = ?", name).Update("last_opened_at", now)
	if res.Error != nil {
		return storeerr.NewOther(fmt.Sprintf("registry: touch last opened: %v", res.Error))
	}
	if res.RowsAffected == 0 {
		return storeerr.NewFileNotFound(name, "")
	}
	return nil
}
