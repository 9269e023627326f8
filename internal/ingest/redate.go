package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixelvision/gallery/internal/models"
)

// DateCatalog is the part of the catalog store RefreshDates needs.
type DateCatalog interface {
	Artworks() []models.ArtworkRecord
	Update(id string, fn func(*models.ArtworkRecord)) error
	Persist() error
}

// RedateResult counts what RefreshDates did.
type RedateResult struct {
	Updated   int
	Unchanged int
	Missing   int
}

// RefreshDates re-attributes each artwork to the modification time of its
// source image in imagesDir. The source for id "20240105_sunset" is
// "sunset.<ext>" with any ingestible extension. The catalog is written once,
// and only when a date changed.
func RefreshDates(cat DateCatalog, imagesDir string) (RedateResult, error) {
	var res RedateResult

	for _, a := range cat.Artworks() {
		if a.Malformed() {
			res.Missing++
			continue
		}
		_, name, ok := strings.Cut(a.ID, "_")
		if !ok || name == "" {
			slog.Warn("Artwork id has no date prefix", "id", a.ID)
			res.Missing++
			continue
		}

		info, found := findSource(imagesDir, name)
		if !found {
			slog.Warn("Image file not found", "id", a.ID, "dir", imagesDir)
			res.Missing++
			continue
		}

		date := info.ModTime()
		if a.Date == date.Format(models.DateLayout) {
			slog.Debug("Date already up to date", "id", a.ID, "date", a.Date)
			res.Unchanged++
			continue
		}

		if err := cat.Update(a.ID, func(r *models.ArtworkRecord) { r.SetDate(date) }); err != nil {
			return res, fmt.Errorf("failed to update %s: %w", a.ID, err)
		}
		slog.Info("Updated date", "id", a.ID, "date", date.Format(models.DateLayout))
		res.Updated++
	}

	if res.Updated > 0 {
		if err := cat.Persist(); err != nil {
			return res, fmt.Errorf("failed to save catalog: %w", err)
		}
	}
	return res, nil
}

func findSource(dir, name string) (os.FileInfo, bool) {
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff"} {
		for _, candidate := range []string{name + ext, name + strings.ToUpper(ext)} {
			info, err := os.Stat(filepath.Join(dir, candidate))
			if err == nil && info.Mode().IsRegular() {
				return info, true
			}
		}
	}
	return nil, false
}
