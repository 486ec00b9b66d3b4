package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mapaction/mapimporter/internal/services"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <package.zip>...",
	Short: "Import map packages into the catalog",
	Long: `Import one or more map packages.

Each package is extracted, its mapdata XML is parsed and the declared
status decides whether a new dataset is created ("New", "Update") or the
existing one is rewritten in place ("Correction"). New datasets are
registered under their event and linked to their series dataset.

A failed import leaves the catalog as it was. With several packages the
remaining ones are still attempted and the command fails if any did.

Examples:
  mapimporter import MA001_v1.zip
  mapimporter import --owner-org mapaction MA001_v2.zip
  mapimporter import --dry-run MA001_v3.zip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

type importFlagValues struct {
	ownerOrg string
	dryRun   bool
	timeout  time.Duration
	jsonOut  bool
}

var importFlags importFlagValues

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFlags.ownerOrg, "owner-org", "", "Organization owning new datasets (makes them private)")
	importCmd.Flags().BoolVar(&importFlags.dryRun, "dry-run", false, "Validate and report what would happen without writing")
	importCmd.Flags().DurationVar(&importFlags.timeout, "timeout", 0, "Timeout per package (default from config, 3m)")
	importCmd.Flags().BoolVar(&importFlags.jsonOut, "json", false, "Print results as JSON")
}

func resetImportFlags() {
	importFlags = importFlagValues{}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	timeout := importFlags.timeout
	if timeout <= 0 {
		if timeout, err = a.cfg.ImportTimeout(); err != nil {
			return err
		}
	}

	out := newPrinter(cmd)
	var (
		results  []any
		firstErr error
		failed   int
	)
	for _, path := range args {
		result, err := importOne(ctx, svc, path, timeout)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			if len(args) > 1 {
				a.logger.Error("%s: %s", path, mapimporter.UserMessage(err))
			}
			continue
		}
		results = append(results, result)
		if importFlags.jsonOut {
			continue
		}
		switch r := result.(type) {
		case *services.Inspection:
			out.success("%s would %s %s", path, r.Action, r.Record.Name)
			out.inspection(r)
		case *mapimporter.Dataset:
			out.success("Imported %s as %s", path, r.Name)
			out.dataset(r)
		}
	}

	if importFlags.jsonOut && len(results) > 0 {
		if err := out.json(results); err != nil {
			return err
		}
	}

	if firstErr == nil {
		return nil
	}
	if len(args) == 1 {
		return firstErr
	}
	out.failure("%d of %d packages failed", failed, len(args))
	return fmt.Errorf("%d of %d packages failed: %w", failed, len(args), firstErr)
}

func importOne(ctx context.Context, svc *services.ImportService, path string, timeout time.Duration) (any, error) {
	upload, err := mapimporter.OpenFileUpload(path)
	if err != nil {
		return nil, err
	}
	defer upload.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if importFlags.dryRun {
		return svc.Plan(ctx, upload)
	}
	return svc.Import(ctx, upload, services.ImportOptions{OwnerOrg: importFlags.ownerOrg})
}
