package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelvision/gallery/internal/derivatives"
	"github.com/pixelvision/gallery/internal/images"
	"github.com/pixelvision/gallery/internal/responsive"
)

func newResponsiveCmd(opts *options) *cobra.Command {
	var (
		start int
		batch int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "responsive",
		Short: "Add responsive renditions to catalogued artworks",
		Long: `Downloads the original of each artwork in the selected catalog window that
has no responsive renditions yet, renders it at every configured width no
wider than the original, uploads the results and records them in the catalog.

Artworks that already have responsive renditions are skipped, so the command
is safe to repeat. Progress is saved every catalog.checkpoint_interval artworks.`,
		Example: `  # First ten artworks
  gallery responsive

  # Artworks 21-45
  gallery responsive --start 20 --batch 25

  # The whole catalog
  gallery responsive --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cat, err := openCatalog(cfg)
			if err != nil {
				return err
			}
			store, err := openStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			window := responsive.Window{Start: start, Size: batch}
			if all {
				window = responsive.Window{All: true}
			}

			b := responsive.NewBackfiller(cat, store, derivatives.New(cfg.Image), images.NewFetcher(docsDir(cfg)), cfg.Catalog.CheckpointInterval)
			res, err := b.Run(cmd.Context(), window)

			fmt.Printf("\nResponsive generation complete!\n")
			fmt.Printf("  Processed: %d\n", res.Processed)
			fmt.Printf("  Skipped: %d\n", res.Skipped)
			fmt.Printf("  Errors: %d\n", res.Errored)
			return err
		},
	}

	cmd.Flags().IntVarP(&start, "start", "s", 0, "Catalog index to start from (0-based)")
	cmd.Flags().IntVarP(&batch, "batch", "b", 10, "Number of artworks to visit")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Visit the whole catalog")

	return cmd
}
