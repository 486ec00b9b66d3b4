package cli

import (
	"fmt"

	"github.com/mapaction/mapimporter/internal/record"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage the events map packages are registered under",
}

var eventCreateCmd = &cobra.Command{
	Use:   "create <operation-id>",
	Short: "Register an event group for an operation id",
	Long: `Register the event group that packages with the given operation id are
added to. The id is zero-padded to five digits, so "189" creates "00189".`,
	Args: cobra.ExactArgs(1),
	RunE: runEventCreate,
}

var eventFlags struct {
	title string
}

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventCreateCmd)
	eventCreateCmd.Flags().StringVar(&eventFlags.title, "title", "", "Human-readable event title")
}

func resetEventFlags() {
	eventFlags.title = ""
}

func runEventCreate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	store, ok := a.catalog.(mapimporter.GroupStore)
	if !ok {
		return fmt.Errorf("catalog %s cannot register events", a.cfg.CatalogDriver())
	}

	name := record.PadOperationID(args[0])
	title := eventFlags.title
	if title == "" {
		title = name
	}
	group, err := store.CreateGroup(ctx, &mapimporter.Group{Name: name, Title: title})
	if err != nil {
		return fmt.Errorf("failed to create event %s: %w", name, err)
	}
	newPrinter(cmd).success("Created event %s (%s)", group.Name, group.Title)
	return nil
}
