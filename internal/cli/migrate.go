package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Install or upgrade the catalog schema in PostgreSQL",
	Long: `Apply the catalog schema to the configured PostgreSQL database and
register the events listed in the config file. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openCatalog(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.pg == nil {
		a.logger.Info("The %s catalog has no schema to migrate", a.cfg.CatalogDriver())
		return nil
	}
	v, err := a.pg.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate catalog: %w", err)
	}
	if err := a.seedEvents(ctx); err != nil {
		return err
	}
	newPrinter(cmd).success("Catalog schema at version %s", v)
	return nil
}
