package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelvision/gallery/internal/models"
)

func TestWriteFile(t *testing.T) {
	artworks := []models.ArtworkRecord{
		{
			ID:         "20240502_b",
			Title:      "B",
			Date:       "2024-05-02",
			Year:       2024,
			Month:      5,
			Original:   "https://cdn.example.com/originals/2024/05/20240502_b.png",
			Thumbnail:  "https://cdn.example.com/thumbnails/2024/05/20240502_b_thumb.jpg",
			WebFormat:  "https://cdn.example.com/webp/2024/05/20240502_b.webp",
			Responsive: map[int]string{768: "r768", 640: "r640"},
			Dimensions: models.Dimensions{Width: 1000, Height: 800},
			FileSize:   12345,
		},
		{
			ID:          "20240501_a",
			Title:       "A",
			Description: "first",
			Date:        "2024-05-01",
			Year:        2024,
			Month:       5,
			Dimensions:  models.Dimensions{Width: 64, Height: 64},
		},
	}

	artworks = append(artworks, models.ArtworkRecord{Raw: []byte(`"oops"`)})

	path := filepath.Join(t.TempDir(), "out", "artworks.parquet")
	n, err := WriteFile(path, artworks)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "malformed entries are not exported")
	require.NoError(t, Verify(path, artworks))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "20240502_b", rows[0].ID)
	assert.Equal(t, []int{640, 768}, rows[0].ResponsiveWidths)
	assert.Equal(t, 1000, rows[0].Width)
	assert.Equal(t, int64(12345), rows[0].FileSize)
	assert.Equal(t, "first", rows[1].Description)
	assert.Empty(t, rows[1].ResponsiveWidths)
}

func TestWriteFileEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	n, err := WriteFile(path, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestVerifyDetectsMismatch(t *testing.T) {
	written := []models.ArtworkRecord{{ID: "a"}, {ID: "b"}}
	path := filepath.Join(t.TempDir(), "artworks.parquet")
	_, err := WriteFile(path, written)
	require.NoError(t, err)

	tests := []struct {
		name     string
		artworks []models.ArtworkRecord
	}{
		{"fewer artworks", []models.ArtworkRecord{{ID: "a"}}},
		{"different order", []models.ArtworkRecord{{ID: "b"}, {ID: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Verify(path, tt.artworks), ErrVerify)
		})
	}

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}
