package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mapaction/mapimporter/internal/tui"
	"github.com/mapaction/mapimporter/internal/ui"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Browse imported datasets",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runDatasetsList,
}

var datasetsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one dataset with its resources and relationships",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetsShow,
}

var datasetsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a dataset with its resources",
	Long: `Delete a dataset, its stored resources, its event memberships and the
relationships that involve it. Series datasets are not deleted with
their versions.

Interactive sessions must confirm by typing the dataset name. Scripts
must pass --force, which waits a few seconds before deleting.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetsDelete,
}

var datasetsFlags struct {
	jsonOut bool
	force   bool
}

// forceCountdown is how long --force waits before deleting.
var forceCountdown = mapimporter.DefaultForceApprovalCountdown

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.AddCommand(datasetsListCmd, datasetsShowCmd, datasetsDeleteCmd)
	datasetsCmd.PersistentFlags().BoolVar(&datasetsFlags.jsonOut, "json", false, "Print as JSON")
	datasetsDeleteCmd.Flags().BoolVar(&datasetsFlags.force, "force", false, "Delete without confirmation, after a countdown")
}

func resetDatasetsFlags() {
	datasetsFlags.jsonOut = false
	datasetsFlags.force = false
}

func runDatasetsList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	lister, ok := a.catalog.(mapimporter.DatasetLister)
	if !ok {
		return fmt.Errorf("catalog %s cannot list datasets", a.cfg.CatalogDriver())
	}
	datasets, err := lister.ListDatasets(ctx)
	if err != nil {
		return err
	}

	out := newPrinter(cmd)
	if datasetsFlags.jsonOut {
		return out.json(datasets)
	}
	for _, ds := range datasets {
		fmt.Fprintf(out.w, "%s\t%s\t%s\n", ds.Name, ds.Title, out.style.Muted(humanize.Time(ds.UpdatedAt)))
	}
	return nil
}

// datasetView is a dataset together with the names of datasets it links to.
type datasetView struct {
	*mapimporter.Dataset
	Relationships []mapimporter.Relationship `json:"relationships,omitempty"`
}

func runDatasetsShow(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ds, err := a.catalog.FindDataset(ctx, args[0])
	if err != nil {
		return err
	}
	view := datasetView{Dataset: ds}
	if lister, ok := a.catalog.(mapimporter.RelationshipLister); ok {
		if view.Relationships, err = lister.Relationships(ctx, ds.ID, ""); err != nil {
			return err
		}
	}

	out := newPrinter(cmd)
	if datasetsFlags.jsonOut {
		return out.json(view)
	}
	out.dataset(ds)
	for _, rel := range view.Relationships {
		out.field("Related", fmt.Sprintf("%s %s %s", rel.Subject, rel.Type, rel.Object))
	}
	return nil
}

// selectApprover picks how a deletion is confirmed.
func selectApprover(cmd *cobra.Command) (ui.Approver, error) {
	if datasetsFlags.force {
		return ui.NewForcedApprover(cmd.ErrOrStderr(), ui.WithCountdown(forceCountdown)), nil
	}
	if !tui.IsInteractive() {
		return nil, fmt.Errorf("required flag \"force\" not set: deletion cannot be confirmed in non-interactive mode")
	}
	return ui.NewInteractiveApprover(cmd.InOrStdin(), cmd.ErrOrStderr()), nil
}

func runDatasetsDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	approver, err := selectApprover(cmd)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ds, err := a.catalog.FindDataset(ctx, args[0])
	if err != nil {
		return err
	}
	approved, err := approver.RequestApproval(ctx, ds.Name)
	if err != nil {
		return err
	}
	if !approved {
		return fmt.Errorf("deletion of %s was not confirmed", ds.Name)
	}

	if err := a.catalog.DeleteDataset(ctx, ds.ID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", ds.Name, err)
	}
	newPrinter(cmd).success("Deleted %s (%d resources)", ds.Name, len(ds.Resources))
	return nil
}
