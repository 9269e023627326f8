// Package handlers serves a read-only preview of the gallery: the catalog
// document, a paginated artwork API and the static site.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pixelvision/gallery/internal/catalog"
	"github.com/pixelvision/gallery/internal/models"
)

type Handler struct {
	catalogPath string
	docsDir     string
}

// New returns a Handler reading the catalog at catalogPath and serving
// static files from docsDir.
func New(catalogPath, docsDir string) *Handler {
	return &Handler{
		catalogPath: catalogPath,
		docsDir:     docsDir,
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/artworks.json", h.HandleCatalog)
	mux.HandleFunc("/api/artworks", h.HandleArtworks)
	mux.HandleFunc("/api/artworks/", h.HandleArtworkDetail)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("/", h.HandleStatic)
	return mux
}

// snapshot reads the catalog from disk on every request so the preview
// reflects runs of the CLI without a restart.
func (h *Handler) snapshot() (models.Catalog, error) {
	store, err := catalog.Open(h.catalogPath)
	if err != nil {
		return models.Catalog{}, err
	}
	return store.Snapshot(), nil
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
