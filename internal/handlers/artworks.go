package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/pixelvision/gallery/internal/models"
)

const (
	defaultLimit = 24
	maxLimit     = 200
)

// ArtworkPage is one page of the artwork listing.
type ArtworkPage struct {
	Artworks   []models.ArtworkRecord `json:"artworks"`
	TotalCount int                    `json:"totalCount"`
	Offset     int                    `json:"offset"`
	Limit      int                    `json:"limit"`
}

// HandleCatalog serves the catalog document as stored on disk.
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if !h.allowGet(w, r) {
		return
	}

	if _, err := os.Stat(h.catalogPath); errors.Is(err, os.ErrNotExist) {
		h.writeJSON(w, models.NewCatalog())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, h.catalogPath)
}

// HandleArtworks lists artworks newest first, leaving out malformed entries.
// Query parameters: offset, limit and year.
func (h *Handler) HandleArtworks(w http.ResponseWriter, r *http.Request) {
	if !h.allowGet(w, r) {
		return
	}

	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		h.writeError(w, "Invalid offset", http.StatusBadRequest)
		return
	}
	limit, err := intParam(q.Get("limit"), defaultLimit)
	if err != nil || limit <= 0 {
		h.writeError(w, "Invalid limit", http.StatusBadRequest)
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	year, err := intParam(q.Get("year"), 0)
	if err != nil {
		h.writeError(w, "Invalid year", http.StatusBadRequest)
		return
	}

	snap, err := h.snapshot()
	if err != nil {
		slog.Error("Failed to load catalog", "err", err)
		h.writeError(w, "Catalog unavailable", http.StatusInternalServerError)
		return
	}

	artworks := make([]models.ArtworkRecord, 0, len(snap.Artworks))
	for _, a := range snap.Artworks {
		if a.Malformed() || (year > 0 && a.Year != year) {
			continue
		}
		artworks = append(artworks, a)
	}

	page := ArtworkPage{
		Artworks:   []models.ArtworkRecord{},
		TotalCount: len(artworks),
		Offset:     offset,
		Limit:      limit,
	}
	if offset < len(artworks) {
		end := min(offset+limit, len(artworks))
		page.Artworks = artworks[offset:end]
	}
	h.writeJSON(w, page)
}

// HandleArtworkDetail serves /api/artworks/{id}.
func (h *Handler) HandleArtworkDetail(w http.ResponseWriter, r *http.Request) {
	if !h.allowGet(w, r) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/artworks/")
	if id == "" || strings.Contains(id, "/") {
		h.writeError(w, "Artwork not found", http.StatusNotFound)
		return
	}

	snap, err := h.snapshot()
	if err != nil {
		slog.Error("Failed to load catalog", "err", err)
		h.writeError(w, "Catalog unavailable", http.StatusInternalServerError)
		return
	}
	for _, a := range snap.Artworks {
		if a.ID == id {
			h.writeJSON(w, a)
			return
		}
	}
	h.writeError(w, "Artwork not found", http.StatusNotFound)
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
