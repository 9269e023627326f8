package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pixelvision/gallery/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		port string
		docs string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the gallery locally",
		Long: `Serves the gallery site and a read-only view of the catalog:

  GET /data/artworks.json        the catalog document
  GET /api/artworks              newest first; offset, limit and year parameters
  GET /api/artworks/{id}         a single artwork
  GET /healthcheck

The server never modifies the catalog.`,
		Example: `  # Start server on default port 8888
  gallery serve

  # Start server on custom port
  gallery serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if docs == "" {
				docs = docsDir(cfg)
			}

			handler := handlers.New(cfg.Catalog.Path, docs)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Gallery preview available", "addr", addr, "url", "http://localhost"+addr, "docs", docs)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&docs, "docs", "", "Directory to serve (default: the directory above the catalog's data directory)")

	return cmd
}
