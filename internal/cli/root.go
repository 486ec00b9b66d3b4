package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mapimporter",
	Short: "Import MapAction map packages into a dataset catalog",
	Long: `mapimporter reads map packages (ZIP archives holding rendered map files
and a mapdata XML description) and registers them as versioned datasets
in a catalog, grouped under their emergency event and linked to the
series dataset they belong to.

Configuration is read from mapimporter.yaml in the working directory,
then from .env and MAPIMPORTER_* environment variables, then from flags.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Catalog database connection failed
  20 - The map package was rejected
  21 - Package status contradicts the catalog
  22 - No event exists for the package's operation id`,
	SilenceUsage: true,
}

// globalFlags holds the persistent flags shared by every command.
var globalFlags struct {
	verbose    bool
	config     string
	catalog    string
	connection string
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(rootCmd.OutOrStdout())
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalFlags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	flags.StringVar(&globalFlags.config, "config", "", "Path to the config file (default ./mapimporter.yaml)")
	flags.StringVar(&globalFlags.catalog, "catalog", "", "Catalog driver: postgres or memory")
	flags.StringVar(&globalFlags.connection, "connection", "", "PostgreSQL connection string of the catalog")
}

func resetGlobalFlags() {
	globalFlags.verbose = false
	globalFlags.config = ""
	globalFlags.catalog = ""
	globalFlags.connection = ""
}
