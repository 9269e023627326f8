package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pixelvision/gallery/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func artwork(id string, width int) models.ArtworkRecord {
	return models.ArtworkRecord{
		ID:         id,
		Title:      id,
		Date:       "2024-05-01",
		Year:       2024,
		Month:      5,
		Original:   "https://cdn.example.com/originals/2024/05/" + id + ".png",
		Thumbnail:  "https://cdn.example.com/thumbnails/2024/05/" + id + "_thumb.jpg",
		Dimensions: models.Dimensions{Width: width, Height: width / 2},
	}
}

func readDocument(t *testing.T, path string) models.Catalog {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var c models.Catalog
	require.NoError(t, json.Unmarshal(data, &c))
	return c
}

func TestOpenMissingFile(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "data", "artworks.json"))
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Empty(t, snap.Artworks)
	assert.NotNil(t, snap.Artworks)
	assert.Equal(t, 0, snap.TotalCount)
	assert.Nil(t, snap.LastUpdated)
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artworks.json")
	damaged := []byte(`{"artworks": [{"id": "a"`)
	require.NoError(t, os.WriteFile(path, damaged, 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptCatalog))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, damaged, data, "a damaged catalog must never be discarded")
}

func TestOpenKeepsMalformedEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"not an object", `"oops"`},
		{"numeric id", `{"id":42}`},
		{"string year", `{"id":"b","year":"2024"}`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "artworks.json")
			doc := `{"artworks":[` + tt.entry + `,{"id":"a","title":"A"}],"totalCount":2}`
			require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

			store, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, 1, store.Snapshot().Malformed)
			assert.Equal(t, 2, store.Len())
			assert.True(t, store.Has("a"))

			require.NoError(t, store.UpsertNew(artwork("c", 100)))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			var written struct {
				Artworks   []json.RawMessage `json:"artworks"`
				TotalCount int               `json:"totalCount"`
			}
			require.NoError(t, json.Unmarshal(data, &written))
			require.Len(t, written.Artworks, 3)
			assert.Equal(t, 3, written.TotalCount)
			assert.JSONEq(t, tt.entry, string(written.Artworks[1]))
			assert.NotContains(t, string(written.Artworks[1]), `"title": ""`)
		})
	}
}

func TestUpsertNewPrependsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artworks.json")
	store, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, store.UpsertNew(artwork("20240501_a", 800)))
	require.NoError(t, store.UpsertNew(artwork("20240502_b", 800)))

	doc := readDocument(t, path)
	require.Len(t, doc.Artworks, 2)
	assert.Equal(t, "20240502_b", doc.Artworks[0].ID, "newest artwork comes first")
	assert.Equal(t, "20240501_a", doc.Artworks[1].ID)
	assert.Equal(t, 2, doc.TotalCount)
	require.NotNil(t, doc.LastUpdated)
	assert.NotNil(t, doc.Artworks[0].Responsive)

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())
}

func TestUpsertNewRejectsDuplicateID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "artworks.json"))
	require.NoError(t, err)

	require.NoError(t, store.UpsertNew(artwork("20240501_a", 800)))
	err = store.UpsertNew(artwork("20240501_a", 900))
	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.Equal(t, 1, store.Len())
}

func TestUpsertNewRollsBackOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "artworks.json"))
	require.NoError(t, err)

	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	store.path = filepath.Join(blocker, "artworks.json")

	err = store.UpsertNew(artwork("20240501_a", 800))
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
	assert.False(t, store.Has("20240501_a"))
}

func TestUpsertDerivativesMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artworks.json")
	store, err := Open(path)
	require.NoError(t, err)

	a := artwork("20240501_a", 1000)
	a.Responsive = map[int]string{640: "existing-640"}
	require.NoError(t, store.UpsertNew(a))

	err = store.UpsertDerivatives("20240501_a", map[int]string{
		640:  "new-640",
		768:  "new-768",
		1280: "too-wide",
	})
	require.NoError(t, err)

	got, ok := store.Get("20240501_a")
	require.True(t, ok)
	assert.Equal(t, map[int]string{640: "existing-640", 768: "new-768"}, got.Responsive)

	doc := readDocument(t, path)
	assert.Equal(t, map[int]string{640: "existing-640", 768: "new-768"}, doc.Artworks[0].Responsive)
}

func TestUpsertDerivativesNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artworks.json")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.UpsertNew(artwork("20240501_a", 1000)))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = store.UpsertDerivatives("missing", map[int]string{640: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 1, store.Snapshot().TotalCount)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPersistKeepsCountAndMonotonicTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artworks.json")
	store, err := Open(path)
	require.NoError(t, err)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.UpsertNew(artwork("a", 100)))
	first := readDocument(t, path)

	clock = clock.Add(-time.Hour)
	require.NoError(t, store.UpsertNew(artwork("b", 100)))
	second := readDocument(t, path)

	assert.Equal(t, 2, second.TotalCount)
	assert.Equal(t, len(second.Artworks), second.TotalCount)
	assert.False(t, second.LastUpdated.Before(*first.LastUpdated))

	clock = clock.Add(3 * time.Hour)
	require.NoError(t, store.Persist())
	third := readDocument(t, path)
	assert.True(t, third.LastUpdated.After(*second.LastUpdated))
}

func TestPersistIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artworks.json")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.UpsertNew(artwork("a", 100)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}

	// A crash mid-write leaves only a partial temp file next to the document.
	partial := filepath.Join(dir, ".artworks.json-123.tmp")
	require.NoError(t, os.WriteFile(partial, []byte(`{"artworks":[{"id":"b"`), 0644))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
	assert.True(t, reopened.Has("a"))
}

func TestPersistPreservesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artworks.json")
	doc := `{"artworks":[{"id":"a","title":"A","responsive":{},"dimensions":{"width":10,"height":10},"tags":["x"]}],"totalCount":1,"lastUpdated":null,"lastUpdate":"2024-01-01"}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Persist())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags": [`)
	assert.Contains(t, string(data), `"lastUpdate": "2024-01-01"`)
}

func TestUpdate(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "artworks.json"))
	require.NoError(t, err)
	require.NoError(t, store.UpsertNew(artwork("a", 100)))

	require.NoError(t, store.Update("a", func(r *models.ArtworkRecord) {
		r.Title = "Renamed"
		r.ID = "ignored"
	}))
	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Title)

	assert.True(t, errors.Is(store.Update("missing", func(*models.ArtworkRecord) {}), ErrNotFound))
}

func TestArtworksReturnsCopies(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "artworks.json"))
	require.NoError(t, err)
	require.NoError(t, store.UpsertNew(artwork("a", 100)))

	list := store.Artworks()
	list[0].Title = "mutated"
	list[0].Responsive[640] = "x"

	got, _ := store.Get("a")
	assert.Equal(t, "a", got.Title)
	assert.Empty(t, got.Responsive)
}
