package cli

import (
	"fmt"

	"github.com/mapaction/mapimporter/internal/themes"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/spf13/cobra"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Manage the product theme vocabulary",
	Long: `Product themes found in map metadata are kept only when they belong to
the theme vocabulary. The vocabulary comes from the themes list in the
config file, else from the catalog, else from the built-in list.`,
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the theme vocabulary in effect",
	Args:  cobra.NoArgs,
	RunE:  runThemesList,
}

var themesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Store the configured (or built-in) vocabulary in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runThemesSync,
}

func init() {
	rootCmd.AddCommand(themesCmd)
	themesCmd.AddCommand(themesListCmd, themesSyncCmd)
}

func runThemesList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	vocab, source, err := vocabulary(ctx, a.cfg, a.catalog)
	if err != nil {
		return err
	}
	a.logger.Info("%d themes from %s", vocab.Len(), source)
	out := newPrinter(cmd)
	for _, name := range vocab.Names() {
		fmt.Fprintln(out.w, name)
	}
	return nil
}

func runThemesSync(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	store, ok := a.catalog.(mapimporter.VocabularyStore)
	if !ok {
		return fmt.Errorf("catalog %s cannot store vocabularies", a.cfg.CatalogDriver())
	}

	vocab := themes.Default()
	if len(a.cfg.Themes) > 0 {
		vocab = themes.New(a.cfg.Themes...)
	}
	if err := store.SyncVocabulary(ctx, themes.VocabularyName, vocab.Names()); err != nil {
		return fmt.Errorf("failed to sync theme vocabulary: %w", err)
	}
	newPrinter(cmd).success("Synced %d themes", vocab.Len())
	return nil
}
