package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixelvision/gallery/internal/catalog"
	"github.com/pixelvision/gallery/internal/models"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".tiff": {},
}

// IsImageFile reports whether name has one of the ingestible extensions.
func IsImageFile(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Candidates lists the image files directly inside dir, sorted by name.
func Candidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// BatchOptions apply to every file of a directory run.
type BatchOptions struct {
	UseFileDate bool
	Caption     bool
}

// FileError is one failed file of a batch.
type FileError struct {
	Path string
	Err  error
}

// BatchResult summarizes a directory run.
type BatchResult struct {
	Success int
	Skipped int
	Errors  int
	Failed  []FileError
	Records []models.ArtworkRecord
}

// IngestDirectory ingests every candidate in dir in name order. A failing
// file is logged and counted and the run moves on; files whose id is already
// catalogued are skipped. Only a missing directory or a cancelled context
// stops the run early. The catalog is persisted once more when the run ends,
// cancelled or not.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string, opts BatchOptions) (*BatchResult, error) {
	files, err := Candidates(dir)
	if err != nil {
		return nil, err
	}
	slog.Info("Found images", "dir", dir, "count", len(files))

	result := &BatchResult{}
	var runErr error
	for i, path := range files {
		if runErr = ctx.Err(); runErr != nil {
			break
		}

		slog.Info("Processing image", "index", i+1, "total", len(files), "file", filepath.Base(path))
		record, err := p.Ingest(ctx, Request{
			Path:        path,
			Title:       baseName(path),
			UseFileDate: opts.UseFileDate,
			Caption:     opts.Caption,
		})
		switch {
		case errors.Is(err, catalog.ErrDuplicateID):
			slog.Info("Skipping already catalogued image", "file", path)
			result.Skipped++
		case err != nil:
			slog.Error("Failed to ingest image", "file", path, "error", err)
			result.Errors++
			result.Failed = append(result.Failed, FileError{Path: path, Err: err})
		default:
			result.Success++
			result.Records = append(result.Records, record)
		}
	}

	if err := p.catalog.Persist(); err != nil {
		return result, errors.Join(runErr, fmt.Errorf("failed to save catalog: %w", err))
	}
	return result, runErr
}
