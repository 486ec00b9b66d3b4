package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mapaction/mapimporter/internal/config"
	"github.com/mapaction/mapimporter/internal/logging"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTemplates(t *testing.T) {
	templates, err := ListTemplates()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"memory", "postgres"}, templates)
	assert.Contains(t, templates, DefaultTemplate)
}

func TestCreateProject_WritesLoadableConfig(t *testing.T) {
	for _, name := range []string{"memory", "postgres"} {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "maps")

			files, err := NewScaffolder(logging.NewNullLogger()).CreateProject("Cyclone Response", name, dir)
			require.NoError(t, err)
			assert.Equal(t, []string{".env.example", config.ConfigFileName}, files)

			cfg, err := config.Load(dir)
			require.NoError(t, err)
			assert.Equal(t, name, cfg.CatalogDriver())

			for _, f := range files {
				data, err := os.ReadFile(filepath.Join(dir, f))
				require.NoError(t, err)
				assert.NotContains(t, string(data), "{{PROJECT_NAME}}")
			}
		})
	}
}

func TestCreateProject_MemoryTemplateValidates(t *testing.T) {
	dir := t.TempDir()
	_, err := NewScaffolder(logging.NewNullLogger()).CreateProject("maps", "memory", dir)
	require.NoError(t, err)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []config.EventConfig{{OperationID: "189", Title: "Example Event"}}, cfg.Events)
}

func TestCreateProject_SubstitutesProjectName(t *testing.T) {
	dir := t.TempDir()
	_, err := NewScaffolder(logging.NewNullLogger()).CreateProject("Cyclone Response", "postgres", dir)
	require.NoError(t, err)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "cyclone-response-resources", cfg.Storage.S3.Bucket)
}

func TestCreateProject_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(existing, []byte("catalog: memory\n"), 0o644))

	_, err := NewScaffolder(logging.NewNullLogger()).CreateProject("maps", "memory", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ConfigFileName)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "catalog: memory\n", string(data))
	assert.NoFileExists(t, filepath.Join(dir, ".env.example"))
}

func TestCreateProject_UnknownTemplate(t *testing.T) {
	_, err := NewScaffolder(logging.NewNullLogger()).CreateProject("maps", "sqlite", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, mapimporter.ErrInvalidConfig)
}

func TestProjectSlug(t *testing.T) {
	tests := map[string]string{
		"Cyclone Response": "cyclone-response",
		"maps_2024.v1":     "maps-2024-v1",
		"  ":               "mapimporter",
		"Éire!":            "ire",
	}
	for in, want := range tests {
		assert.Equal(t, want, ProjectSlug(in), "input %q", in)
	}
}

func TestNewScaffolder_PanicsOnNilLogger(t *testing.T) {
	assert.PanicsWithValue(t, "logger cannot be nil", func() { NewScaffolder(nil) })
}

func TestTemplates_HaveNoTabs(t *testing.T) {
	templates, err := ListTemplates()
	require.NoError(t, err)
	for _, name := range templates {
		files, err := templateFiles("templates/" + name)
		require.NoError(t, err)
		for _, f := range files {
			data, err := templatesFS.ReadFile("templates/" + name + "/" + f)
			require.NoError(t, err)
			assert.False(t, strings.Contains(string(data), "\t"), "%s/%s contains a tab", name, f)
		}
	}
}
