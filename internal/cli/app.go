package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mapaction/mapimporter/internal/archive"
	"github.com/mapaction/mapimporter/internal/catalog"
	"github.com/mapaction/mapimporter/internal/catalog/postgres"
	"github.com/mapaction/mapimporter/internal/config"
	"github.com/mapaction/mapimporter/internal/contract"
	"github.com/mapaction/mapimporter/internal/db"
	"github.com/mapaction/mapimporter/internal/logging"
	"github.com/mapaction/mapimporter/internal/record"
	"github.com/mapaction/mapimporter/internal/services"
	"github.com/mapaction/mapimporter/internal/storage"
	"github.com/mapaction/mapimporter/internal/themes"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/spf13/cobra"
)

// app is the catalog a command works against, opened from configuration.
type app struct {
	cfg     *config.Config
	logger  mapimporter.Logger
	catalog mapimporter.Catalog
	pg      *postgres.Catalog
	closers []func()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newLogger(cmd *cobra.Command) mapimporter.Logger {
	return logging.NewConsoleLoggerTo(cmd.ErrOrStderr(), globalFlags.verbose)
}

// loadConfig resolves configuration with precedence
// flags > environment (.env included) > config file > defaults.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv("."); err != nil {
		return nil, fmt.Errorf("%w: %w", mapimporter.ErrInvalidConfig, err)
	}

	var (
		cfg *config.Config
		err error
	)
	if globalFlags.config != "" {
		cfg, err = config.LoadFile(globalFlags.config)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", globalFlags.config, err, mapimporter.ErrInvalidConfig)
		}
	} else {
		cfg, err = config.Load(".")
		if errors.Is(err, config.ErrConfigNotFound) {
			cfg, err = &config.Config{}, nil
		}
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if globalFlags.catalog != "" {
		cfg.Catalog = globalFlags.catalog
	}
	if globalFlags.connection != "" {
		cfg.Database.URL = globalFlags.connection
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openBlobStore returns nil when resource content is not stored.
func openBlobStore(ctx context.Context, cfg *config.Config) (mapimporter.BlobStore, error) {
	switch cfg.StorageDriver() {
	case config.StorageLocal:
		return storage.NewLocalStore(cfg.StoragePath(), cfg.Storage.BaseURL)
	case config.StorageMinio:
		s3 := cfg.Storage.S3
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  s3.Endpoint,
			Bucket:    s3.Bucket,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Region:    s3.Region,
			UseSSL:    s3.UseSSL,
			PublicURL: s3.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}

// openCatalog connects to the configured catalog without checking its schema.
func openCatalog(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: newLogger(cmd)}

	store, err := openBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	maxResourceSize, err := cfg.MaxResourceSize()
	if err != nil {
		return nil, err
	}

	switch cfg.CatalogDriver() {
	case config.CatalogPostgres:
		pool, err := db.NewStandardConnector(cfg.Database.URL, a.logger).Connect(ctx)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.pg = postgres.New(db.NewPoolAdapter(pool),
			postgres.WithBlobStore(store),
			postgres.WithMaxResourceSize(maxResourceSize),
		)
		a.catalog = a.pg
		a.logger.Verbose("Using PostgreSQL catalog")
	default:
		a.catalog = catalog.NewMemory(
			catalog.WithBlobStore(store),
			catalog.WithMaxResourceSize(maxResourceSize),
		)
		a.logger.Verbose("Using in-memory catalog; nothing is kept after this command")
	}
	return a, nil
}

// openApp opens the catalog, checks its schema and registers configured events.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	a, err := openCatalog(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := a.checkSchema(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.seedEvents(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) checkSchema(ctx context.Context) error {
	if a.pg == nil {
		return nil
	}
	v, err := contract.Applied(ctx, a.pg.Conn())
	if err != nil {
		return err
	}
	if v == "" {
		return fmt.Errorf("catalog schema is not installed, run 'mapimporter migrate' first: %w", mapimporter.ErrInvalidConfig)
	}
	a.logger.Verbose("Catalog schema version %s", v)
	return nil
}

// seedEvents registers the events listed in the config. Existing events are kept.
func (a *app) seedEvents(ctx context.Context) error {
	if len(a.cfg.Events) == 0 {
		return nil
	}
	store, ok := a.catalog.(mapimporter.GroupStore)
	if !ok {
		return fmt.Errorf("catalog cannot register events: %w", mapimporter.ErrInvalidConfig)
	}
	for _, ev := range a.cfg.Events {
		name := record.PadOperationID(ev.OperationID)
		_, err := store.CreateGroup(ctx, &mapimporter.Group{Name: name, Title: ev.Title})
		if errors.Is(err, catalog.ErrNameTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to register event %s: %w", name, err)
		}
		a.logger.Verbose("Registered event %s", name)
	}
	return nil
}

// vocabulary picks the theme vocabulary: configured themes first, then
// the one stored in the catalog, then the built-in default.
func vocabulary(ctx context.Context, cfg *config.Config, cat mapimporter.Catalog) (themes.Vocabulary, string, error) {
	if len(cfg.Themes) > 0 {
		return themes.New(cfg.Themes...), "config", nil
	}
	if store, ok := cat.(mapimporter.VocabularyStore); ok {
		names, err := store.Vocabulary(ctx, themes.VocabularyName)
		switch {
		case err == nil && len(names) > 0:
			return themes.New(names...), "catalog", nil
		case err != nil && !errors.Is(err, mapimporter.ErrNotFound):
			return themes.Vocabulary{}, "", fmt.Errorf("failed to read theme vocabulary: %w", err)
		}
	}
	return themes.Default(), "default", nil
}

// newService builds the import service for cat from cfg.
func newService(ctx context.Context, cfg *config.Config, cat mapimporter.Catalog, logger mapimporter.Logger, opts ...services.ServiceOption) (*services.ImportService, error) {
	vocab, source, err := vocabulary(ctx, cfg, cat)
	if err != nil {
		return nil, err
	}
	logger.Verbose("Using %s theme vocabulary (%d themes)", source, vocab.Len())

	builder := record.NewBuilder(vocab, logger, record.WithDedupeThemes(cfg.Import.DedupeThemes))

	var extractOpts []archive.Option
	if cfg.Import.TempDir != "" {
		extractOpts = append(extractOpts, archive.WithTempDir(cfg.Import.TempDir))
	}
	maxExtracted, err := cfg.MaxExtractedSize()
	if err != nil {
		return nil, err
	}
	if maxExtracted > 0 {
		extractOpts = append(extractOpts, archive.WithMaxExtractedSize(maxExtracted))
	}

	opts = append(opts, services.WithExtractOptions(extractOpts...))
	return services.NewImportService(cat, builder, logger, opts...), nil
}

func (a *app) service(ctx context.Context, opts ...services.ServiceOption) (*services.ImportService, error) {
	return newService(ctx, a.cfg, a.catalog, a.logger, opts...)
}
