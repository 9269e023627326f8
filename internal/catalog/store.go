// Package catalog owns the artworks.json document: loading it, applying
// updates and replacing it atomically on disk.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pixelvision/gallery/internal/models"
)

var (
	ErrCorruptCatalog = errors.New("catalog document is corrupt")
	ErrNotFound       = errors.New("artwork not found")
	ErrDuplicateID    = errors.New("artwork id already exists")
)

// Store is the single writer of a catalog document. All methods are safe for
// concurrent use; every mutation and persist is serialized on one mutex.
type Store struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	catalog *models.Catalog
}

// Open loads the catalog at path. A missing file yields an empty catalog; a
// file that cannot be parsed is reported as ErrCorruptCatalog and left untouched.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		now:  time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the catalog document
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("Catalog not found, starting empty", "path", s.path)
		s.catalog = models.NewCatalog()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	catalog := models.NewCatalog()
	if err := json.Unmarshal(data, catalog); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptCatalog, s.path, err)
	}

	seen := make(map[string]struct{}, len(catalog.Artworks))
	for i, a := range catalog.Artworks {
		if a.Malformed() {
			slog.Warn("Catalog entry is malformed, keeping it unchanged", "index", i)
			continue
		}
		if a.ID == "" {
			slog.Warn("Catalog entry has no id", "index", i)
			continue
		}
		if _, dup := seen[a.ID]; dup {
			slog.Warn("Catalog contains duplicate id", "id", a.ID, "index", i)
		}
		seen[a.ID] = struct{}{}
	}

	s.catalog = catalog
	if catalog.Malformed > 0 {
		slog.Warn("Skipped malformed catalog entries", "path", s.path, "count", catalog.Malformed)
	}
	slog.Debug("Catalog loaded", "path", s.path, "artworks", len(catalog.Artworks))
	return nil
}

// Snapshot returns a deep copy of the whole catalog
func (s *Store) Snapshot() models.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *s.catalog
	out.Artworks = s.copyArtworks()
	if s.catalog.LastUpdated != nil {
		ts := *s.catalog.LastUpdated
		out.LastUpdated = &ts
	}
	return out
}

// Artworks returns a copy of the artwork sequence in catalog order
func (s *Store) Artworks() []models.ArtworkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyArtworks()
}

func (s *Store) copyArtworks() []models.ArtworkRecord {
	out := make([]models.ArtworkRecord, len(s.catalog.Artworks))
	for i, a := range s.catalog.Artworks {
		out[i] = a.Clone()
	}
	return out
}

// Len returns the number of artworks
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.catalog.Artworks)
}

// Get returns a copy of the artwork with the given id.
func (s *Store) Get(id string) (models.ArtworkRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.catalog.Artworks[i].Clone(), true
	}
	return models.ArtworkRecord{}, false
}

// Has reports whether an artwork with id exists.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.catalog.Artworks {
		if s.catalog.Artworks[i].ID == id {
			return i
		}
	}
	return -1
}

// UpsertNew prepends a freshly ingested artwork and persists the catalog. The
// record is removed again if the write fails.
func (s *Store) UpsertNew(record models.ArtworkRecord) error {
	if record.ID == "" {
		return errors.New("artwork id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(record.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, record.ID)
	}

	record = record.Clone()
	if record.Responsive == nil {
		record.Responsive = map[int]string{}
	}

	previous := s.catalog.Artworks
	s.catalog.Artworks = append([]models.ArtworkRecord{record}, previous...)

	if err := s.persistLocked(); err != nil {
		s.catalog.Artworks = previous
		s.catalog.TotalCount = len(previous)
		return err
	}
	return nil
}

// MergeDerivatives adds responsive widths to an artwork in memory without
// replacing widths that are already present. It returns how many widths were
// added, or ErrNotFound when id is not in the catalog.
func (s *Store) MergeDerivatives(id string, widths map[int]string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added, err := s.mergeLocked(id, widths)
	return len(added), err
}

func (s *Store) mergeLocked(id string, widths map[int]string) ([]int, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	record := &s.catalog.Artworks[i]
	if record.Responsive == nil {
		record.Responsive = make(map[int]string, len(widths))
	}

	var added []int
	for w, url := range widths {
		if _, exists := record.Responsive[w]; exists {
			continue
		}
		if record.Dimensions.Width > 0 && w > record.Dimensions.Width {
			slog.Warn("Ignoring responsive width wider than original",
				"id", id, "width", w, "original_width", record.Dimensions.Width)
			continue
		}
		record.Responsive[w] = url
		added = append(added, w)
	}
	return added, nil
}

// UpsertDerivatives merges widths into an artwork and persists the catalog.
// ErrNotFound means there was nothing to update; the catalog is unchanged.
func (s *Store) UpsertDerivatives(id string, widths map[int]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.mergeLocked(id, widths)
	if err != nil {
		return err
	}

	if err := s.persistLocked(); err != nil {
		record := &s.catalog.Artworks[s.indexOf(id)]
		for _, w := range added {
			delete(record.Responsive, w)
		}
		return err
	}
	return nil
}

// Update applies fn to the artwork with id in memory. Callers persist.
func (s *Store) Update(id string, fn func(*models.ArtworkRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	fn(&s.catalog.Artworks[i])
	s.catalog.Artworks[i].ID = id
	return nil
}

// Persist writes the whole catalog to disk.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// persistLocked serializes the catalog to a temp file in the target directory
// and renames it over the document, so readers see the old or the new
// version and never a partial one.
func (s *Store) persistLocked() error {
	now := s.now().UTC()
	if last := s.catalog.LastUpdated; last != nil && now.Before(*last) {
		now = *last
	}
	previous := s.catalog.LastUpdated
	s.catalog.LastUpdated = &now
	s.catalog.TotalCount = len(s.catalog.Artworks)

	data, err := json.MarshalIndent(s.catalog, "", "  ")
	if err != nil {
		s.catalog.LastUpdated = previous
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		s.catalog.LastUpdated = previous
		return err
	}
	slog.Debug("Catalog persisted", "path", s.path, "artworks", s.catalog.TotalCount)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set catalog permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}
