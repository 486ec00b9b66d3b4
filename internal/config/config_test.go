package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	content := `catalog: postgres
database:
  url: postgres://catalog@db:5432/catalog
storage:
  driver: minio
  s3:
    endpoint: minio:9000
    bucket: resources
    access_key: key
    use_ssl: true
import:
  max_resource_size: 20MB
  timeout: 1m
  dedupe_themes: true
server:
  listen: ":9000"
themes:
  - Health
  - Logistics
events:
  - operation_id: "189"
    title: Example Event
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, CatalogPostgres, cfg.CatalogDriver())
	assert.Equal(t, "postgres://catalog@db:5432/catalog", cfg.Database.URL)
	assert.Equal(t, StorageMinio, cfg.StorageDriver())
	assert.Equal(t, "minio:9000", cfg.Storage.S3.Endpoint)
	assert.True(t, cfg.Storage.S3.UseSSL)
	assert.True(t, cfg.Import.DedupeThemes)
	assert.Equal(t, ":9000", cfg.Listen())
	assert.Equal(t, []string{"Health", "Logistics"}, cfg.Themes)
	assert.Equal(t, []EventConfig{{OperationID: "189", Title: "Example Event"}}, cfg.Events)

	size, err := cfg.MaxResourceSize()
	require.NoError(t, err)
	assert.EqualValues(t, 20_000_000, size)

	timeout, err := cfg.ImportTimeout()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, timeout)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("catalog: [unclosed"), 0644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, mapimporter.ErrInvalidConfig)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, CatalogMemory, cfg.CatalogDriver())
	assert.Equal(t, StorageLocal, cfg.StorageDriver())
	assert.Equal(t, DefaultStoragePath, cfg.StoragePath())
	assert.Equal(t, DefaultListen, cfg.Listen())

	size, err := cfg.MaxResourceSize()
	require.NoError(t, err)
	assert.Equal(t, mapimporter.DefaultMaxResourceSize, size)

	upload, err := cfg.MaxUploadSize()
	require.NoError(t, err)
	assert.EqualValues(t, 100_000_000, upload)

	timeout, err := cfg.ImportTimeout()
	require.NoError(t, err)
	assert.Equal(t, mapimporter.DefaultImportTimeout, timeout)

	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{URL: "postgres://from-yaml"}}

	err := cfg.ApplyEnv(envMap(map[string]string{
		"DATABASE_URL":                  "postgres://from-database-url",
		"MAPIMPORTER_STORAGE_PATH":      "/srv/resources",
		"MAPIMPORTER_MAX_RESOURCE_SIZE": "5 MiB",
		"MAPIMPORTER_S3_USE_SSL":        "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://from-database-url", cfg.Database.URL)
	assert.Equal(t, CatalogPostgres, cfg.CatalogDriver())
	assert.Equal(t, "/srv/resources", cfg.StoragePath())
	assert.True(t, cfg.Storage.S3.UseSSL)
	size, err := cfg.MaxResourceSize()
	require.NoError(t, err)
	assert.EqualValues(t, 5<<20, size)

	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		"MAPIMPORTER_DATABASE_URL": "postgres://preferred",
		"DATABASE_URL":             "postgres://fallback",
	})))
	assert.Equal(t, "postgres://preferred", cfg.Database.URL)
}

func TestApplyEnv_InvalidBool(t *testing.T) {
	cfg := &Config{}
	err := cfg.ApplyEnv(envMap(map[string]string{"MAPIMPORTER_S3_USE_SSL": "maybe"}))
	assert.ErrorIs(t, err, mapimporter.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"postgres without url", Config{Catalog: CatalogPostgres}},
		{"unknown catalog", Config{Catalog: "sqlite"}},
		{"unknown storage", Config{Storage: StorageConfig{Driver: "ftp"}}},
		{"minio without bucket", Config{Storage: StorageConfig{Driver: StorageMinio, S3: S3Config{Endpoint: "minio:9000"}}}},
		{"bad size", Config{Import: ImportConfig{MaxResourceSize: "lots"}}},
		{"bad timeout", Config{Import: ImportConfig{Timeout: "soon"}}},
		{"negative timeout", Config{Import: ImportConfig{Timeout: "-1s"}}},
		{"event without id", Config{Events: []EventConfig{{Title: "Nameless"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.ErrorIs(t, err, mapimporter.ErrInvalidConfig)
			assert.Equal(t, mapimporter.ExitConfigError, mapimporter.ExitCodeForError(err))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(dir), "missing .env is fine")

	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFileName), []byte("MAPIMPORTER_TEST_DOTENV=loaded\n"), 0644))
	t.Setenv("MAPIMPORTER_TEST_DOTENV", "")
	os.Unsetenv("MAPIMPORTER_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "loaded", os.Getenv("MAPIMPORTER_TEST_DOTENV"))
}
