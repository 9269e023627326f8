package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelvision/gallery/internal/ingest"
)

func newUploadCmd(opts *options) *cobra.Command {
	var (
		title       string
		description string
		useFileDate bool
		caption     bool
	)

	cmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload one artwork",
		Long: `Uploads the original image, renders and uploads its thumbnail and WebP
renditions, then adds the artwork to the front of the catalog.

Responsive renditions are added later by the responsive command.`,
		Example: `  # Upload with a title
  gallery upload art/lighthouse.png --title "Lighthouse"

  # Date the artwork by the file's modification time and caption it with a vision model
  gallery upload art/fox.png --use-file-date --caption`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, _, err := opts.newPipeline(cmd.Context(), caption)
			if err != nil {
				return err
			}

			record, err := pipeline.Ingest(cmd.Context(), ingest.Request{
				Path:        args[0],
				Title:       title,
				Description: description,
				UseFileDate: useFileDate,
				Caption:     caption,
			})
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}

			fmt.Printf("\nUpload complete: %s\n", record.ID)
			fmt.Printf("  Title:     %s\n", record.Title)
			fmt.Printf("  Size:      %dx%d\n", record.Dimensions.Width, record.Dimensions.Height)
			fmt.Printf("  Original:  %s\n", record.Original)
			fmt.Printf("  Thumbnail: %s\n", record.Thumbnail)
			fmt.Printf("  WebP:      %s\n", record.WebFormat)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Artwork title (default: file name)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Artwork description")
	cmd.Flags().BoolVar(&useFileDate, "use-file-date", false, "Date the artwork by the file's modification time")
	cmd.Flags().BoolVar(&caption, "caption", false, "Generate a description with the configured vision model when none is given")

	return cmd
}
