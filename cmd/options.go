package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pixelvision/gallery/internal/captioning"
	"github.com/pixelvision/gallery/internal/catalog"
	"github.com/pixelvision/gallery/internal/config"
	"github.com/pixelvision/gallery/internal/derivatives"
	"github.com/pixelvision/gallery/internal/ingest"
	"github.com/pixelvision/gallery/internal/storage"
)

const defaultConfigHint = config.DefaultPath + " when present"

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath  string
	catalogPath string
	logLevel    string
}

func (o *options) setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(o.logLevel))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger.With("run_id", uuid.NewString()))
	return nil
}

// loadConfig reads --config, or config/config.yaml when it exists, and
// applies --catalog.
func (o *options) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.catalogPath != "" {
		cfg.Catalog.Path = o.catalogPath
	}
	slog.Debug("Configuration loaded", "path", path, "backend", cfg.Storage.Backend, "catalog", cfg.Catalog.Path)
	return cfg, nil
}

func openCatalog(cfg *config.Config) (*catalog.Store, error) {
	store, err := catalog.Open(cfg.Catalog.Path)
	if errors.Is(err, catalog.ErrCorruptCatalog) {
		return nil, fmt.Errorf("%w; fix or restore the file before running again", err)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// docsDir is the root the gallery site is served from: the directory above
// the catalog's data directory.
func docsDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Catalog.Path))
}

// newPipeline wires everything an ingestion needs.
func (o *options) newPipeline(ctx context.Context, caption bool) (*ingest.Pipeline, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cat, err := openCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	pipeline := ingest.NewPipeline(cat, store, derivatives.New(cfg.Image))
	if caption {
		svc, err := captioning.NewService(cfg.Caption)
		if err != nil {
			return nil, nil, err
		}
		pipeline.Captioner = svc
	}
	return pipeline, cfg, nil
}
