package cli

import (
	"github.com/mapaction/mapimporter/internal/catalog"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <package.zip>",
	Short: "Show the dataset a map package would produce",
	Long: `Extract and parse a map package and print the dataset record it yields.

No catalog is contacted; use 'import --dry-run' to also check the package
status against the catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectFlags struct {
	jsonOut bool
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectFlags.jsonOut, "json", false, "Print the inspection as JSON")
}

func resetInspectFlags() {
	inspectFlags.jsonOut = false
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newService(ctx, cfg, catalog.NewMemory(), newLogger(cmd))
	if err != nil {
		return err
	}

	upload, err := mapimporter.OpenFileUpload(args[0])
	if err != nil {
		return err
	}
	defer upload.Close()

	in, err := svc.Inspect(upload)
	if err != nil {
		return err
	}

	out := newPrinter(cmd)
	if inspectFlags.jsonOut {
		return out.json(in)
	}
	out.inspection(in)
	return nil
}
