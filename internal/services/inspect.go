package services

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mapaction/mapimporter/internal/catalog"
	"github.com/mapaction/mapimporter/internal/lifecycle"
	"github.com/mapaction/mapimporter/internal/record"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// PackageFile describes one payload member of a package.
type PackageFile struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// Inspection is what an upload would import, without touching a catalog.
type Inspection struct {
	Upload          string                `json:"upload"`
	MetadataFile    string                `json:"metadata_file"`
	IgnoredMetadata []string              `json:"ignored_metadata,omitempty"`
	Files           []PackageFile         `json:"files"`
	Record          *record.DatasetRecord `json:"record"`
	SeriesName      string                `json:"series_name"`
	Event           string                `json:"event"`

	// Set by Plan only.
	Action string `json:"action,omitempty"`
	Exists bool   `json:"exists,omitempty"`
}

// Inspect extracts and parses upload and reports the record it yields.
// Invalid input is returned as a *mapimporter.ValidationError.
func (s *ImportService) Inspect(upload mapimporter.Upload) (*Inspection, error) {
	pkg, rec, err := s.load(upload)
	if err != nil {
		return nil, uploadError(err)
	}
	defer s.closePackage(pkg)

	in := &Inspection{
		Upload:       upload.Name(),
		MetadataFile: filepath.Base(pkg.MetadataPath),
		Record:       rec,
		SeriesName:   rec.SeriesName(),
		Event:        rec.PaddedOperationID(),
	}
	for _, p := range pkg.IgnoredMetadata {
		in.IgnoredMetadata = append(in.IgnoredMetadata, filepath.Base(p))
	}
	for _, p := range pkg.FilePaths {
		f := PackageFile{Name: filepath.Base(p), Format: catalog.FormatFromName(p)}
		if info, err := os.Stat(p); err == nil {
			f.Size = info.Size()
		}
		in.Files = append(in.Files, f)
	}
	return in, nil
}

// Plan inspects upload and resolves what Import would do with it against
// the catalog, without writing anything. Lifecycle conflicts and unknown
// events are reported the same way Import reports them.
func (s *ImportService) Plan(ctx context.Context, upload mapimporter.Upload) (*Inspection, error) {
	in, err := s.Inspect(upload)
	if err != nil {
		return nil, err
	}
	rec := in.Record
	if err := rec.RequireStatus(); err != nil {
		return nil, uploadError(err)
	}

	_, exists, err := s.findExisting(ctx, rec.Name)
	if err != nil {
		return nil, err
	}
	action, err := lifecycle.Resolve(rec.Status, rec.Name, exists)
	if err != nil {
		return nil, uploadError(err)
	}
	if action == lifecycle.ActionCreate {
		if _, err := s.findGroup(ctx, rec); err != nil {
			return nil, uploadError(err)
		}
	}

	in.Action = action.String()
	in.Exists = exists
	return in, nil
}
