package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mapaction/mapimporter/internal/archive"
	"github.com/mapaction/mapimporter/internal/lifecycle"
	"github.com/mapaction/mapimporter/internal/metadata"
	"github.com/mapaction/mapimporter/internal/record"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// ImportOptions are the per-request parameters of an import.
type ImportOptions struct {
	// OwnerOrg is the organization new datasets belong to. Datasets created
	// with an owner organization are private.
	OwnerOrg string
}

// ImportService imports map packages into a catalog.
// Thread-Safety: safe for concurrent use, but imports of packages with the
// same operation id must be serialised by the caller.
type ImportService struct {
	catalog     mapimporter.Catalog
	builder     *record.Builder
	logger      mapimporter.Logger
	metrics     *Metrics
	extractOpts []archive.Option
}

// ServiceOption configures an ImportService.
type ServiceOption func(*ImportService)

// WithMetrics records import outcomes in m.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *ImportService) { s.metrics = m }
}

// WithExtractOptions passes opts to archive.Extract.
func WithExtractOptions(opts ...archive.Option) ServiceOption {
	return func(s *ImportService) { s.extractOpts = append(s.extractOpts, opts...) }
}

// NewImportService creates an ImportService. Panics on nil dependencies,
// which are programmer errors rather than runtime conditions.
func NewImportService(catalog mapimporter.Catalog, builder *record.Builder, logger mapimporter.Logger, opts ...ServiceOption) *ImportService {
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	if builder == nil {
		panic("builder cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	s := &ImportService{catalog: catalog, builder: builder, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import extracts upload, builds its dataset record and creates or updates
// the matching dataset. Invalid input is returned as a
// *mapimporter.ValidationError on the upload field; infrastructure failures
// are returned wrapped with context.
func (s *ImportService) Import(ctx context.Context, upload mapimporter.Upload, opts ImportOptions) (ds *mapimporter.Dataset, err error) {
	start := time.Now()
	action := "none"
	defer func() {
		outcome := OutcomeSuccess
		switch {
		case mapimporter.IsInvalidInput(err):
			outcome = OutcomeInvalid
		case err != nil:
			outcome = OutcomeError
		}
		s.metrics.observe(action, outcome, time.Since(start))
	}()

	pkg, rec, err := s.load(upload)
	if err != nil {
		return nil, uploadError(err)
	}
	defer s.closePackage(pkg)

	if err := rec.RequireStatus(); err != nil {
		return nil, uploadError(err)
	}

	existing, exists, err := s.findExisting(ctx, rec.Name)
	if err != nil {
		return nil, err
	}

	resolved, err := lifecycle.Resolve(rec.Status, rec.Name, exists)
	if err != nil {
		return nil, uploadError(err)
	}
	action = resolved.String()
	s.logger.Verbose("Package %s has status %s: %s dataset %s", upload.Name(), rec.Status, action, rec.Name)

	switch resolved {
	case lifecycle.ActionCreate:
		ds, err = s.create(ctx, rec, pkg, opts)
	case lifecycle.ActionUpdate:
		ds, err = s.update(ctx, rec, pkg, existing)
	default:
		err = fmt.Errorf("unexpected lifecycle action %s", resolved)
	}
	if err != nil {
		return nil, uploadError(err)
	}

	s.logger.Info("Imported %s as %s (%s, %d resources)", upload.Name(), ds.Name, action, len(ds.Resources))
	return ds, nil
}

// uploadError converts taxonomy errors into the single invalid-upload
// outcome and passes everything else through.
func uploadError(err error) error {
	var validationErr *mapimporter.ValidationError
	if errors.As(err, &validationErr) {
		return err
	}
	if mapimporter.IsInvalidInput(err) {
		return mapimporter.NewUploadError(err)
	}
	return err
}

// load extracts the archive and builds its record. The package is closed
// on error.
func (s *ImportService) load(upload mapimporter.Upload) (*archive.MapPackage, *record.DatasetRecord, error) {
	pkg, err := archive.Extract(upload, s.extractOpts...)
	if err != nil {
		return nil, nil, err
	}
	for _, ignored := range pkg.IgnoredMetadata {
		s.logger.Warn("Ignoring additional metadata file %s; using %s",
			filepath.Base(ignored), filepath.Base(pkg.MetadataPath))
	}

	tree, err := metadata.Parse(pkg.MetadataPath)
	if err != nil {
		s.closePackage(pkg)
		return nil, nil, err
	}
	rec, err := s.builder.Build(tree)
	if err != nil {
		s.closePackage(pkg)
		return nil, nil, err
	}
	return pkg, rec, nil
}

func (s *ImportService) closePackage(pkg *archive.MapPackage) {
	if err := pkg.Close(); err != nil {
		s.logger.Warn("Failed to remove scratch directory %s: %v", pkg.Dir, err)
	}
}

func (s *ImportService) findExisting(ctx context.Context, name string) (*mapimporter.Dataset, bool, error) {
	existing, err := s.catalog.FindDataset(ctx, name)
	switch {
	case errors.Is(err, mapimporter.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to look up dataset %s: %w", name, err)
	}
	return existing, true, nil
}

func (s *ImportService) findGroup(ctx context.Context, rec *record.DatasetRecord) (*mapimporter.Group, error) {
	padded := rec.PaddedOperationID()
	group, err := s.catalog.FindGroupByOperationID(ctx, padded)
	if errors.Is(err, mapimporter.ErrNotFound) {
		return nil, &mapimporter.UnknownOperationError{OperationID: padded}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up event %s: %w", padded, err)
	}
	return group, nil
}

// create registers a new dataset for rec. Every catalog write made here is
// undone if a later step fails.
func (s *ImportService) create(ctx context.Context, rec *record.DatasetRecord, pkg *archive.MapPackage, opts ImportOptions) (_ *mapimporter.Dataset, err error) {
	group, err := s.findGroup(ctx, rec)
	if err != nil {
		return nil, err
	}

	undo := &undoStack{logger: s.logger}
	defer func() {
		if err != nil {
			undo.unwind(ctx)
		}
	}()

	draft := rec.Dataset()
	draft.Name = mapimporter.TemporaryNamePrefix + uuid.NewString()
	draft.OwnerOrg = opts.OwnerOrg
	draft.Private = opts.OwnerOrg != ""

	ds, err := s.catalog.CreateDataset(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset %s: %w", rec.Name, err)
	}
	datasetID := ds.ID
	undo.push("delete dataset "+ds.Name, func(ctx context.Context) error {
		return s.catalog.DeleteDataset(ctx, datasetID)
	})

	if err := s.attach(ctx, datasetID, pkg.FilePaths, nil); err != nil {
		return nil, err
	}

	ds.Name = rec.Name
	if ds, err = s.catalog.UpdateDataset(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to rename dataset to %s: %w", rec.Name, err)
	}

	if err := s.catalog.AddMembership(ctx, group.ID, ds.ID); err != nil {
		return nil, fmt.Errorf("failed to add %s to event %s: %w", ds.Name, group.Name, err)
	}

	parent, err := s.findOrCreateParent(ctx, rec, ds, undo)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.CreateRelationship(ctx, ds.ID, parent.ID, mapimporter.RelationshipChildOf); err != nil {
		return nil, fmt.Errorf("failed to link %s to %s: %w", ds.Name, parent.Name, err)
	}

	return s.reload(ctx, ds.ID)
}

// findOrCreateParent returns the series dataset the new version belongs to,
// creating it with the child's owner organization and privacy if needed.
func (s *ImportService) findOrCreateParent(ctx context.Context, rec *record.DatasetRecord, child *mapimporter.Dataset, undo *undoStack) (*mapimporter.Dataset, error) {
	name := rec.SeriesName()
	parent, exists, err := s.findExisting(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return parent, nil
	}

	parent, err = s.catalog.CreateDataset(ctx, &mapimporter.Dataset{
		Name:      name,
		Title:     rec.Title,
		LicenseID: rec.LicenseID,
		OwnerOrg:  child.OwnerOrg,
		Private:   child.Private,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create series dataset %s: %w", name, err)
	}
	s.logger.Verbose("Created series dataset %s", name)
	parentID := parent.ID
	undo.push("delete series dataset "+name, func(ctx context.Context) error {
		return s.catalog.DeleteDataset(ctx, parentID)
	})
	return parent, nil
}

// update rewrites existing from rec. New resources are attached before the
// old ones are removed, so a failure leaves the dataset as it was.
func (s *ImportService) update(ctx context.Context, rec *record.DatasetRecord, pkg *archive.MapPackage, existing *mapimporter.Dataset) (*mapimporter.Dataset, error) {
	previous := existing.Resources

	var added []mapimporter.Resource
	if err := s.attach(ctx, existing.ID, pkg.FilePaths, &added); err != nil {
		s.discard(ctx, added)
		return nil, err
	}

	fields := rec.Dataset()
	next := *existing
	next.Title = fields.Title
	next.Notes = fields.Notes
	next.Version = fields.Version
	next.Type = fields.Type
	next.LicenseID = fields.LicenseID
	next.ProductThemes = fields.ProductThemes
	next.Extras = fields.Extras

	if _, err := s.catalog.UpdateDataset(ctx, &next); err != nil {
		s.discard(ctx, added)
		return nil, fmt.Errorf("failed to update dataset %s: %w", existing.Name, err)
	}

	for _, res := range previous {
		if err := s.catalog.DeleteResource(ctx, res.ID); err != nil {
			s.logger.Error("Failed to remove replaced resource %s (%s) from %s: %v", res.Name, res.ID, existing.Name, err)
		}
	}

	return s.reload(ctx, existing.ID)
}

// attach creates one resource per file. Created resources are appended to
// added when it is non-nil.
func (s *ImportService) attach(ctx context.Context, datasetID string, paths []string, added *[]mapimporter.Resource) error {
	for _, p := range paths {
		res, err := s.catalog.CreateResource(ctx, datasetID, p)
		if err != nil {
			return fmt.Errorf("failed to attach %s: %w", filepath.Base(p), err)
		}
		s.metrics.resourceAttached()
		s.logger.Verbose("Attached %s (%s)", res.Name, res.Format)
		if added != nil {
			*added = append(*added, *res)
		}
	}
	return nil
}

func (s *ImportService) discard(ctx context.Context, resources []mapimporter.Resource) {
	ctx = context.WithoutCancel(ctx)
	for _, res := range resources {
		if err := s.catalog.DeleteResource(ctx, res.ID); err != nil {
			s.logger.Error("Failed to remove resource %s (%s): %v", res.Name, res.ID, err)
		}
	}
}

func (s *ImportService) reload(ctx context.Context, id string) (*mapimporter.Dataset, error) {
	ds, err := s.catalog.FindDataset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload dataset %s: %w", id, err)
	}
	return ds, nil
}
