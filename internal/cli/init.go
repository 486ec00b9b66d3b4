package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mapaction/mapimporter/internal/scaffold"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter mapimporter.yaml and .env.example",
	Long: `Write a starter configuration into dir (default: the current directory).

Templates:
  memory    in-memory catalog with local file storage, for trying things out
  postgres  PostgreSQL catalog with resources in an S3-compatible bucket

Existing files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initFlags struct {
	template string
	name     string
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initFlags.template, "template", "t", scaffold.DefaultTemplate, "Template to use")
	initCmd.Flags().StringVar(&initFlags.name, "name", "", "Project name used in bucket and database names (default: directory name)")
}

func resetInitFlags() {
	initFlags.template = scaffold.DefaultTemplate
	initFlags.name = ""
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	name := initFlags.name
	if name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		name = filepath.Base(abs)
	}

	templates, err := scaffold.ListTemplates()
	if err != nil {
		return err
	}
	found := false
	for _, t := range templates {
		found = found || t == initFlags.template
	}
	if !found {
		return fmt.Errorf("invalid argument %q for --template: choose one of %s", initFlags.template, strings.Join(templates, ", "))
	}

	files, err := scaffold.NewScaffolder(newLogger(cmd)).CreateProject(name, initFlags.template, dir)
	if err != nil {
		return err
	}

	out := newPrinter(cmd)
	out.success("Created %s configuration in %s", initFlags.template, dir)
	for _, f := range files {
		fmt.Fprintf(out.w, "    %s\n", f)
	}
	return nil
}
