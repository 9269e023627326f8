package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pixelvision/gallery/internal/ingest"
)

func newBatchCmd(opts *options) *cobra.Command {
	var (
		dryRun      bool
		useFileDate bool
		caption     bool
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Upload every image in a directory",
		Long: `Uploads every jpg, jpeg, png, gif, webp, bmp and tiff file directly inside
the directory, in name order, titled by file name.

A file that fails is reported and the run continues. Files whose artwork id
is already in the catalog are skipped, so an interrupted batch can simply be
run again.`,
		Example: `  # Show what would be uploaded
  gallery batch ./new-art --dry-run

  # Upload, dating each artwork by its file time
  gallery batch ./new-art --use-file-date`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			if dryRun {
				return listCandidates(dir)
			}

			pipeline, _, err := opts.newPipeline(cmd.Context(), caption)
			if err != nil {
				return err
			}

			res, err := pipeline.IngestDirectory(cmd.Context(), dir, ingest.BatchOptions{
				UseFileDate: useFileDate,
				Caption:     caption,
			})
			if res != nil {
				fmt.Printf("\nBatch upload complete!\n")
				fmt.Printf("  Uploaded: %d\n", res.Success)
				fmt.Printf("  Skipped (already catalogued): %d\n", res.Skipped)
				fmt.Printf("  Errors: %d\n", res.Errors)
				for _, f := range res.Failed {
					fmt.Printf("    - %s: %v\n", filepath.Base(f.Path), f.Err)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the files that would be uploaded without uploading")
	cmd.Flags().BoolVar(&useFileDate, "use-file-date", false, "Date each artwork by its file's modification time")
	cmd.Flags().BoolVar(&caption, "caption", false, "Generate descriptions with the configured vision model")

	return cmd
}

func listCandidates(dir string) error {
	files, err := ingest.Candidates(dir)
	if err != nil {
		return err
	}

	fmt.Println("Dry run - files that would be uploaded:")
	var total uint64
	for i, f := range files {
		size := "?"
		if info, err := os.Stat(f); err == nil {
			total += uint64(info.Size())
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Printf("%d. %s (%s)\n", i+1, filepath.Base(f), size)
	}
	fmt.Printf("\nTotal: %d files, %s would be uploaded\n", len(files), humanize.Bytes(total))
	return nil
}
