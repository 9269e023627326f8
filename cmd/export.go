package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelvision/gallery/internal/export"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		output string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as a Parquet table",
		Example: `  gallery export --output artworks.parquet

  # Read the file back and compare it with the catalog
  gallery export --verify`,
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

			artworks := cat.Artworks()
			n, err := export.WriteFile(output, artworks)
			if err != nil {
				return err
			}
			if verify {
				if err := export.Verify(output, artworks); err != nil {
					return err
				}
			}
			fmt.Printf("Exported %d artworks to %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "artworks.parquet", "Output file")
	cmd.Flags().BoolVar(&verify, "verify", false, "Read the file back and check it against the catalog")

	return cmd
}
