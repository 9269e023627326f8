package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelvision/gallery/internal/ingest"
)

func newRedateCmd(opts *options) *cobra.Command {
	var imagesDir string

	cmd := &cobra.Command{
		Use:   "redate",
		Short: "Date artworks by the modification time of their source files",
		Long: `For each artwork, looks for its source image in the images directory
(artwork "20240105_sunset" maps to "sunset.jpg", "sunset.png", ...) and sets
date, year and month from the file's modification time.`,
		Example: `  gallery redate --images docs/images`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cat, err := openCatalog(cfg)
			if err != nil {
				return err
			}

			res, err := ingest.RefreshDates(cat, imagesDir)
			if err != nil {
				return err
			}

			fmt.Printf("\nDate refresh complete!\n")
			fmt.Printf("  Updated: %d\n", res.Updated)
			fmt.Printf("  Unchanged: %d\n", res.Unchanged)
			fmt.Printf("  Source not found: %d\n", res.Missing)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagesDir, "images", "docs/images", "Directory holding the source images")

	return cmd
}
