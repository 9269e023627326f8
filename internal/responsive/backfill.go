// Package responsive adds responsive width renditions to artworks that were
// catalogued without them.
package responsive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixelvision/gallery/internal/catalog"
	"github.com/pixelvision/gallery/internal/derivatives"
	"github.com/pixelvision/gallery/internal/models"
	"github.com/pixelvision/gallery/internal/storage"
)

// Catalog is the part of the catalog store a backfill needs.
type Catalog interface {
	Artworks() []models.ArtworkRecord
	MergeDerivatives(id string, widths map[int]string) (int, error)
	Persist() error
}

// Fetcher returns the bytes of a published original.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Window selects catalog positions [Start, Start+Size). All selects
// everything from Start on; otherwise Size <= 0 selects nothing.
type Window struct {
	Start int
	Size  int
	All   bool
}

// Bounds clamps the window to a catalog of n artworks.
func (w Window) Bounds(n int) (int, int) {
	start := min(max(w.Start, 0), n)
	switch {
	case w.All:
		return start, n
	case w.Size <= 0:
		return start, start
	default:
		return start, min(start+w.Size, n)
	}
}

// Result counts the outcome of every artwork in the window.
type Result struct {
	Processed int
	Skipped   int
	Errored   int
}

// Backfiller renders and uploads responsive widths for catalogued artworks.
type Backfiller struct {
	catalog   Catalog
	store     storage.Store
	generator *derivatives.Generator
	fetcher   Fetcher
	interval  int
}

// NewBackfiller returns a Backfiller that checkpoints the catalog every
// interval artworks.
func NewBackfiller(cat Catalog, store storage.Store, generator *derivatives.Generator, fetcher Fetcher, interval int) *Backfiller {
	return &Backfiller{
		catalog:   cat,
		store:     store,
		generator: generator,
		fetcher:   fetcher,
		interval:  interval,
	}
}

var errNoWidths = errors.New("no responsive widths produced")

// Run visits the window in catalog order. Artworks that already have
// responsive renditions, or have no id, are skipped; failures are logged and
// counted and never stop the run. The catalog is persisted every interval
// visited artworks and once more at the end.
func (b *Backfiller) Run(ctx context.Context, w Window) (Result, error) {
	var res Result

	artworks := b.catalog.Artworks()
	start, end := w.Bounds(len(artworks))
	slog.Info("Generating responsive images", "from", start+1, "to", end, "total", len(artworks))

	cp := catalog.NewCheckpointer(b.catalog, b.interval)
	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			if ferr := cp.Finish(); ferr != nil {
				slog.Error("Failed to save catalog", "error", ferr)
			}
			return res, err
		}

		a := artworks[i]
		switch {
		case a.Malformed():
			slog.Info("Skipping malformed catalog entry", "index", i+1)
			res.Skipped++
		case a.ID == "":
			slog.Info("Skipping artwork without id", "index", i+1)
			res.Skipped++
		case a.HasResponsive():
			slog.Debug("Skipping artwork with responsive images", "index", i+1, "id", a.ID)
			res.Skipped++
		default:
			added, err := b.backfill(ctx, a)
			switch {
			case errors.Is(err, errNoWidths), errors.Is(err, catalog.ErrNotFound):
				slog.Info("Skipping artwork", "index", i+1, "id", a.ID, "reason", err)
				res.Skipped++
			case err != nil:
				slog.Error("Failed to generate responsive images", "index", i+1, "id", a.ID, "error", err)
				res.Errored++
			default:
				slog.Info("Responsive images added", "index", i+1, "id", a.ID, "widths", added)
				res.Processed++
			}
		}

		if err := cp.Tick(); err != nil {
			return res, fmt.Errorf("failed to save checkpoint: %w", err)
		}
	}

	if err := cp.Finish(); err != nil {
		return res, fmt.Errorf("failed to save catalog: %w", err)
	}
	return res, nil
}

func (b *Backfiller) backfill(ctx context.Context, a models.ArtworkRecord) (int, error) {
	data, err := b.fetcher.Fetch(ctx, a.Original)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch original: %w", err)
	}
	img, _, err := derivatives.Decode(data)
	if err != nil {
		return 0, err
	}

	date, ok := a.ParsedDate()
	if !ok {
		date = time.Now()
	}
	year, month := date.Year(), int(date.Month())

	// The catalog refuses widths beyond the recorded one, which can be
	// narrower than the decoded image when orientation was applied since.
	var renditions map[int][]byte
	if limit := a.Dimensions.Width; limit > 0 && limit < img.Bounds().Dx() {
		renditions = b.generator.ResponsiveWidths(img, widthsUpTo(b.generator.Widths(), limit))
	} else {
		renditions = b.generator.ResponsiveSet(img)
	}

	urls := make(map[int]string)
	for width, rendition := range renditions {
		url, err := b.store.Put(ctx, storage.ResponsiveKey(year, month, a.ID, width), rendition, derivatives.ResponsiveContentType, storage.CacheImmutable)
		if err != nil {
			slog.Warn("Failed to upload responsive width", "id", a.ID, "width", width, "error", err)
			continue
		}
		urls[width] = url
	}
	if len(urls) == 0 {
		return 0, errNoWidths
	}

	return b.catalog.MergeDerivatives(a.ID, urls)
}

func widthsUpTo(widths []int, limit int) []int {
	out := widths[:0]
	for _, w := range widths {
		if w <= limit {
			out = append(out, w)
		}
	}
	return out
}
