// Package export writes the catalog as a flat Parquet table for analysis.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/pixelvision/gallery/internal/models"
)

// ErrVerify means an exported file does not match the catalog it came from.
var ErrVerify = errors.New("export does not match catalog")

// Row is one artwork in the exported table.
type Row struct {
	ID          string `parquet:"id"`
	Title       string `parquet:"title"`
	Description string `parquet:"description,optional"`
	Date        string `parquet:"date"`
	Year        int    `parquet:"year"`
	Month       int    `parquet:"month"`

	Original  string `parquet:"original"`
	Thumbnail string `parquet:"thumbnail"`
	WebFormat string `parquet:"webp,optional"`

	Width    int   `parquet:"width"`
	Height   int   `parquet:"height"`
	FileSize int64 `parquet:"file_size"`

	ResponsiveWidths []int `parquet:"responsive_widths,list"`
}

// NewRow flattens a catalog record.
func NewRow(a models.ArtworkRecord) Row {
	return Row{
		ID:               a.ID,
		Title:            a.Title,
		Description:      a.Description,
		Date:             a.Date,
		Year:             a.Year,
		Month:            a.Month,
		Original:         a.Original,
		Thumbnail:        a.Thumbnail,
		WebFormat:        a.WebFormat,
		Width:            a.Dimensions.Width,
		Height:           a.Dimensions.Height,
		FileSize:         a.FileSize,
		ResponsiveWidths: a.ResponsiveWidths(),
	}
}

// Write encodes artworks to w in catalog order and returns the number of rows.
// Malformed entries have nothing to flatten and are left out.
func Write(w io.Writer, artworks []models.ArtworkRecord) (int, error) {
	rows := make([]Row, 0, len(artworks))
	for _, a := range artworks {
		if a.Malformed() {
			continue
		}
		rows = append(rows, NewRow(a))
	}

	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return 0, fmt.Errorf("failed to write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return len(rows), nil
}

// WriteFile writes artworks to path, replacing any existing file only once
// the new one is complete. It returns the number of rows written.
func WriteFile(path string, artworks []models.ArtworkRecord) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	n, err := Write(f, artworks)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to rename output file: %w", err)
	}

	slog.Info("Catalog exported", "path", path, "rows", n)
	return n, nil
}

// Verify reads path back and checks that it holds one row per well-formed
// artwork, with matching ids in catalog order.
func Verify(path string, artworks []models.ArtworkRecord) error {
	rows, err := ReadFile(path)
	if err != nil {
		return err
	}

	var ids []string
	for _, a := range artworks {
		if !a.Malformed() {
			ids = append(ids, a.ID)
		}
	}
	if len(rows) != len(ids) {
		return fmt.Errorf("%w: %d rows, want %d", ErrVerify, len(rows), len(ids))
	}
	for i, row := range rows {
		if row.ID != ids[i] {
			return fmt.Errorf("%w: row %d has id %q, want %q", ErrVerify, i, row.ID, ids[i])
		}
	}
	return nil
}

// ReadFile loads every row of a file written by WriteFile.
func ReadFile(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var rows []Row
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rows: %w", err)
		}
	}
	return rows, nil
}
