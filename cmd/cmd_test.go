package cmd

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelvision/gallery/internal/catalog"
	"github.com/pixelvision/gallery/internal/export"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(os.Stdout)
	return root.ExecuteContext(context.Background())
}

func TestFilesystemGalleryEndToEnd(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	catalogPath := filepath.Join(docs, "data", "artworks.json")
	t.Setenv("GALLERY_STORAGE_BACKEND", "filesystem")
	t.Setenv("GALLERY_LOCAL_DIR", filepath.Join(docs, "media"))
	t.Setenv("GALLERY_PUBLIC_BASE", "")

	src := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(src, 0755))
	img := imaging.New(800, 400, color.NRGBA{R: 90, G: 10, B: 160, A: 255})
	require.NoError(t, imaging.Save(img, filepath.Join(src, "harbor.png")))
	require.NoError(t, imaging.Save(img, filepath.Join(src, "meadow.jpg")))
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.gif"), []byte("nope"), 0644))

	require.NoError(t, run(t, "--catalog", catalogPath, "batch", src, "--dry-run"))
	_, err := os.Stat(catalogPath)
	assert.True(t, os.IsNotExist(err), "dry run writes nothing")

	require.NoError(t, run(t, "--catalog", catalogPath, "--log-level", "warn", "batch", src))

	store, err := catalog.Open(catalogPath)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
	for _, a := range store.Artworks() {
		assert.FileExists(t, filepath.Join(docs, filepath.FromSlash(a.Original)))
		assert.FileExists(t, filepath.Join(docs, filepath.FromSlash(a.Thumbnail)))
		assert.FileExists(t, filepath.Join(docs, filepath.FromSlash(a.WebFormat)))
		assert.Empty(t, a.Responsive)
	}

	require.NoError(t, run(t, "--catalog", catalogPath, "responsive", "--all"))

	store, err = catalog.Open(catalogPath)
	require.NoError(t, err)
	for _, a := range store.Artworks() {
		assert.Equal(t, []int{640, 768}, a.ResponsiveWidths(), a.ID)
		for _, url := range a.Responsive {
			assert.FileExists(t, filepath.Join(docs, filepath.FromSlash(url)))
		}
	}

	out := filepath.Join(dir, "artworks.parquet")
	require.NoError(t, run(t, "--catalog", catalogPath, "export", "-o", out, "--verify"))
	rows, err := export.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestBatchMissingDirectoryFails(t *testing.T) {
	t.Setenv("GALLERY_STORAGE_BACKEND", "filesystem")
	t.Setenv("GALLERY_LOCAL_DIR", t.TempDir())
	err := run(t, "--catalog", filepath.Join(t.TempDir(), "artworks.json"), "batch", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCorruptCatalogFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artworks.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	t.Setenv("GALLERY_STORAGE_BACKEND", "filesystem")

	err := run(t, "--catalog", path, "export", "-o", filepath.Join(t.TempDir(), "x.parquet"))
	assert.ErrorIs(t, err, catalog.ErrCorruptCatalog)
}

func TestInvalidLogLevel(t *testing.T) {
	assert.Error(t, run(t, "--log-level", "loud", "redate"))
}
