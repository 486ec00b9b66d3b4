// Package scaffold writes starter configuration files from embedded templates.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

//go:embed all:templates
var templatesFS embed.FS

// DefaultTemplate is used when no template is named.
const DefaultTemplate = "memory"

// Scaffolder writes template files into a directory.
type Scaffolder struct {
	logger mapimporter.Logger
}

// NewScaffolder creates a Scaffolder. Panics if logger is nil.
func NewScaffolder(logger mapimporter.Logger) *Scaffolder {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Scaffolder{logger: logger}
}

// CreateProject writes the files of templateName into targetPath, creating
// it if needed. Existing files are never overwritten: if any template file
// is already present nothing is written. Returns the written paths
// relative to targetPath.
func (s *Scaffolder) CreateProject(projectName, templateName, targetPath string) ([]string, error) {
	templatePath := path.Join("templates", templateName)
	files, err := templateFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("template '%s' not found: %w", templateName, mapimporter.ErrInvalidConfig)
	}

	var conflicts []string
	for _, rel := range files {
		if _, err := os.Stat(filepath.Join(targetPath, filepath.FromSlash(rel))); err == nil {
			conflicts = append(conflicts, rel)
		}
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("refusing to overwrite %s in %s", strings.Join(conflicts, ", "), targetPath)
	}

	if err := os.MkdirAll(targetPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s.logger.Verbose("Writing template '%s' for %s into %s", templateName, projectName, targetPath)
	for _, rel := range files {
		content, err := templatesFS.ReadFile(path.Join(templatePath, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", rel, err)
		}
		target := filepath.Join(targetPath, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		s.logger.Verbose("Creating file: %s", rel)
		if err := os.WriteFile(target, []byte(processTemplate(string(content), projectName)), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write file %s: %w", target, err)
		}
	}
	return files, nil
}

func templateFiles(templatePath string) ([]string, error) {
	if _, err := fs.ReadDir(templatesFS, templatePath); err != nil {
		return nil, err
	}
	var files []string
	err := fs.WalkDir(templatesFS, templatePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		files = append(files, strings.TrimPrefix(p, templatePath+"/"))
		return nil
	})
	sort.Strings(files)
	return files, err
}

// processTemplate replaces template variables in content
func processTemplate(content, projectName string) string {
	return strings.ReplaceAll(content, "{{PROJECT_NAME}}", ProjectSlug(projectName))
}

// ProjectSlug lowercases name and keeps it usable as a bucket or database name.
func ProjectSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "mapimporter"
	}
	return slug
}

// ListTemplates returns available template names
func ListTemplates() ([]string, error) {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	var templates []string
	for _, entry := range entries {
		if entry.IsDir() {
			templates = append(templates, entry.Name())
		}
	}

	return templates, nil
}
