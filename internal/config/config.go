// Package config loads mapimporter.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const (
	ConfigFileName = "mapimporter.yaml"
	DotEnvFileName = ".env"
)

// Catalog drivers.
const (
	CatalogPostgres = "postgres"
	CatalogMemory   = "memory"
)

// Storage drivers.
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Defaults.
const (
	DefaultListen        = ":8080"
	DefaultMaxUploadSize = "100MB"
	DefaultStoragePath   = "storage"
)

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url,omitempty"`
}

type StorageConfig struct {
	Driver  string   `yaml:"driver"`
	Path    string   `yaml:"path"`
	BaseURL string   `yaml:"base_url"`
	S3      S3Config `yaml:"s3"`
}

type ImportConfig struct {
	MaxResourceSize  string `yaml:"max_resource_size"`
	MaxExtractedSize string `yaml:"max_extracted_size"`
	TempDir          string `yaml:"temp_dir"`
	Timeout          string `yaml:"timeout"`
	DedupeThemes     bool   `yaml:"dedupe_themes"`
}

type ServerConfig struct {
	Listen        string `yaml:"listen"`
	MaxUploadSize string `yaml:"max_upload_size"`
}

// EventConfig declares an event group registered when the catalog opens.
type EventConfig struct {
	OperationID string `yaml:"operation_id"`
	Title       string `yaml:"title"`
}

// Config is the content of mapimporter.yaml.
type Config struct {
	Catalog  string         `yaml:"catalog"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Import   ImportConfig   `yaml:"import"`
	Server   ServerConfig   `yaml:"server"`
	Themes   []string       `yaml:"themes,omitempty"`
	Events   []EventConfig  `yaml:"events,omitempty"`
}

// Load reads ConfigFileName from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the config file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w: %v", path, mapimporter.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// LoadDotEnv loads dir/.env into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, DotEnvFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Catalog, "MAPIMPORTER_CATALOG")
	set(&c.Database.URL, "MAPIMPORTER_DATABASE_URL", "DATABASE_URL")
	set(&c.Storage.Driver, "MAPIMPORTER_STORAGE_DRIVER")
	set(&c.Storage.Path, "MAPIMPORTER_STORAGE_PATH")
	set(&c.Storage.BaseURL, "MAPIMPORTER_STORAGE_BASE_URL")
	set(&c.Storage.S3.Endpoint, "MAPIMPORTER_S3_ENDPOINT")
	set(&c.Storage.S3.Bucket, "MAPIMPORTER_S3_BUCKET")
	set(&c.Storage.S3.AccessKey, "MAPIMPORTER_S3_ACCESS_KEY")
	set(&c.Storage.S3.SecretKey, "MAPIMPORTER_S3_SECRET_KEY")
	set(&c.Storage.S3.Region, "MAPIMPORTER_S3_REGION")
	set(&c.Storage.S3.PublicURL, "MAPIMPORTER_S3_PUBLIC_URL")
	set(&c.Import.MaxResourceSize, "MAPIMPORTER_MAX_RESOURCE_SIZE")
	set(&c.Import.TempDir, "MAPIMPORTER_TEMP_DIR")
	set(&c.Server.Listen, "MAPIMPORTER_LISTEN")

	if v, ok := lookup("MAPIMPORTER_S3_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MAPIMPORTER_S3_USE_SSL=%q: %w", v, mapimporter.ErrInvalidConfig)
		}
		c.Storage.S3.UseSSL = b
	}
	return nil
}

// CatalogDriver returns the configured catalog driver. Without an explicit
// choice PostgreSQL is used when a database URL is known.
func (c *Config) CatalogDriver() string {
	if c.Catalog != "" {
		return c.Catalog
	}
	if c.Database.URL != "" {
		return CatalogPostgres
	}
	return CatalogMemory
}

// StorageDriver returns the configured storage driver, local by default.
func (c *Config) StorageDriver() string {
	if c.Storage.Driver != "" {
		return c.Storage.Driver
	}
	return StorageLocal
}

// StoragePath returns the local storage directory.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return DefaultStoragePath
}

// Listen returns the HTTP listen address.
func (c *Config) Listen() string {
	if c.Server.Listen != "" {
		return c.Server.Listen
	}
	return DefaultListen
}

// MaxResourceSize returns the per-resource limit in bytes.
func (c *Config) MaxResourceSize() (int64, error) {
	return parseSize("import.max_resource_size", c.Import.MaxResourceSize, mapimporter.DefaultMaxResourceSize)
}

// MaxExtractedSize returns the limit on a package's uncompressed size, or 0
// for the extractor's default.
func (c *Config) MaxExtractedSize() (int64, error) {
	return parseSize("import.max_extracted_size", c.Import.MaxExtractedSize, 0)
}

// MaxUploadSize returns the largest accepted HTTP upload in bytes.
func (c *Config) MaxUploadSize() (int64, error) {
	s := c.Server.MaxUploadSize
	if s == "" {
		s = DefaultMaxUploadSize
	}
	return parseSize("server.max_upload_size", s, 0)
}

// ImportTimeout returns the overall import timeout.
func (c *Config) ImportTimeout() (time.Duration, error) {
	if c.Import.Timeout == "" {
		return mapimporter.DefaultImportTimeout, nil
	}
	d, err := time.ParseDuration(c.Import.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("import.timeout %q: %w", c.Import.Timeout, mapimporter.ErrInvalidConfig)
	}
	return d, nil
}

// Validate checks the driver names and the sizes.
func (c *Config) Validate() error {
	switch c.CatalogDriver() {
	case CatalogPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("catalog %q needs database.url or MAPIMPORTER_DATABASE_URL: %w", CatalogPostgres, mapimporter.ErrInvalidConfig)
		}
	case CatalogMemory:
	default:
		return fmt.Errorf("unknown catalog %q (want %s or %s): %w", c.Catalog, CatalogPostgres, CatalogMemory, mapimporter.ErrInvalidConfig)
	}

	switch c.StorageDriver() {
	case StorageNone, StorageLocal:
	case StorageMinio:
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage driver %q needs storage.s3.endpoint and storage.s3.bucket: %w", StorageMinio, mapimporter.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown storage driver %q: %w", c.Storage.Driver, mapimporter.ErrInvalidConfig)
	}

	for i, ev := range c.Events {
		if ev.OperationID == "" {
			return fmt.Errorf("events[%d] has no operation_id: %w", i, mapimporter.ErrInvalidConfig)
		}
	}

	if _, err := c.MaxResourceSize(); err != nil {
		return err
	}
	if _, err := c.MaxExtractedSize(); err != nil {
		return err
	}
	if _, err := c.MaxUploadSize(); err != nil {
		return err
	}
	_, err := c.ImportTimeout()
	return err
}

func parseSize(field, s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, s, mapimporter.ErrInvalidConfig)
	}
	return int64(n), nil
}
