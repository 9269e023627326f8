// Package ingest turns image files into published renditions and catalog
// entries, one file at a time or a whole directory per run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pixelvision/gallery/internal/catalog"
	"github.com/pixelvision/gallery/internal/derivatives"
	"github.com/pixelvision/gallery/internal/models"
	"github.com/pixelvision/gallery/internal/storage"
)

// Step names the stage of an ingestion that failed.
type Step string

const (
	StepValidate       Step = "validate"
	StepUploadOriginal Step = "upload-original"
	StepThumbnail      Step = "thumbnail"
	StepWebP           Step = "webp"
	StepCatalog        Step = "catalog"
)

// StepError is returned by Ingest. Uploads finished before Step are not
// rolled back.
type StepError struct {
	Step Step
	Path string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Path, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Catalog is the part of the catalog store ingestion writes to.
type Catalog interface {
	Has(id string) bool
	UpsertNew(record models.ArtworkRecord) error
	Persist() error
}

// Captioner writes a description for an image.
type Captioner interface {
	Describe(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Request describes one image to ingest.
type Request struct {
	Path        string
	Title       string // defaults to the file name without extension
	Description string
	// UseFileDate attributes the artwork to the file's modification time
	// instead of the time of ingestion.
	UseFileDate bool
	// Caption asks the Captioner for a description when none is given.
	Caption bool
}

// Pipeline ingests images into one catalog and one object store.
type Pipeline struct {
	catalog   Catalog
	store     storage.Store
	generator *derivatives.Generator

	// Captioner is optional.
	Captioner Captioner
	Now       func() time.Time
}

func NewPipeline(cat Catalog, store storage.Store, generator *derivatives.Generator) *Pipeline {
	return &Pipeline{
		catalog:   cat,
		store:     store,
		generator: generator,
		Now:       time.Now,
	}
}

// ArtworkID is <YYYYMMDD>_<file name without extension>.
func ArtworkID(date time.Time, path string) string {
	return date.Format("20060102") + "_" + baseName(path)
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Ingest validates the image at req.Path, uploads the original, thumbnail and
// WebP renditions and prepends the new record to the catalog. An id already in
// the catalog fails validation with catalog.ErrDuplicateID before anything is
// uploaded.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (models.ArtworkRecord, error) {
	fail := func(step Step, err error) (models.ArtworkRecord, error) {
		return models.ArtworkRecord{}, &StepError{Step: step, Path: req.Path, Err: err}
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		return fail(StepValidate, err)
	}
	if !info.Mode().IsRegular() {
		return fail(StepValidate, errors.New("not a regular file"))
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		return fail(StepValidate, err)
	}
	img, format, err := derivatives.Decode(data)
	if err != nil {
		return fail(StepValidate, err)
	}

	date := p.Now()
	if req.UseFileDate {
		date = info.ModTime()
	}
	id := ArtworkID(date, req.Path)
	if p.catalog.Has(id) {
		return fail(StepValidate, fmt.Errorf("%w: %s", catalog.ErrDuplicateID, id))
	}

	year, month := date.Year(), int(date.Month())
	bounds := img.Bounds()
	slog.Info("Ingesting artwork",
		"id", id,
		"format", format,
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"size", humanize.Bytes(uint64(len(data))))

	ext := filepath.Ext(req.Path)
	originalURL, err := p.store.Put(ctx, storage.OriginalKey(year, month, id, ext), data, storage.ContentTypeForExt(ext), storage.CacheImmutable)
	if err != nil {
		return fail(StepUploadOriginal, err)
	}

	thumb, err := p.generator.Thumbnail(img)
	if err != nil {
		return fail(StepThumbnail, err)
	}
	thumbURL, err := p.store.Put(ctx, storage.ThumbnailKey(year, month, id), thumb, derivatives.ThumbnailContentType, storage.CacheImmutable)
	if err != nil {
		return fail(StepThumbnail, err)
	}

	web, err := p.generator.WebFormat(img)
	if err != nil {
		return fail(StepWebP, err)
	}
	webURL, err := p.store.Put(ctx, storage.WebPKey(year, month, id), web, derivatives.WebFormatContentType, storage.CacheImmutable)
	if err != nil {
		return fail(StepWebP, err)
	}

	record := models.ArtworkRecord{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Original:    originalURL,
		Thumbnail:   thumbURL,
		WebFormat:   webURL,
		Responsive:  map[int]string{},
		Dimensions:  models.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()},
		FileSize:    int64(len(data)),
	}
	record.SetDate(date)
	if record.Title == "" {
		record.Title = baseName(req.Path)
	}

	if record.Description == "" && req.Caption && p.Captioner != nil {
		caption, err := p.Captioner.Describe(ctx, thumb, derivatives.ThumbnailContentType)
		if err != nil {
			slog.Warn("Failed to generate description", "id", id, "error", err)
		} else {
			record.Description = caption
		}
	}

	if err := p.catalog.UpsertNew(record); err != nil {
		return fail(StepCatalog, err)
	}

	slog.Info("Artwork ingested", "id", id, "original", originalURL)
	return record, nil
}
