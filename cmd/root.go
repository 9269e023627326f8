package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Publish pixel art to the gallery",
		Long: `Gallery ingests artwork images, renders thumbnail, WebP and responsive
renditions, uploads them to object storage and keeps the gallery catalog
(docs/data/artworks.json) up to date.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return opts.setupLogging()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default "+defaultConfigHint+")")
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Path to the catalog document (overrides catalog.path)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	// Add subcommands
	cmd.AddCommand(newUploadCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newResponsiveCmd(opts))
	cmd.AddCommand(newRedateCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}
