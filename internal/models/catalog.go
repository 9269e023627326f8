package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Catalog is the JSON document the gallery reads, newest artwork first
type Catalog struct {
	Artworks    []ArtworkRecord `json:"artworks"`
	TotalCount  int             `json:"totalCount"`
	LastUpdated *time.Time      `json:"lastUpdated"`

	Extra map[string]any `json:"-"`

	// Malformed counts the artwork entries kept as raw bytes by the last decode.
	Malformed int `json:"-"`
}

var catalogKeys = map[string]struct{}{
	"artworks": {}, "totalCount": {}, "lastUpdated": {},
}

// NewCatalog returns an empty, never persisted catalog
func NewCatalog() *Catalog {
	return &Catalog{Artworks: []ArtworkRecord{}}
}

type catalogAlias struct {
	Artworks    []ArtworkRecord `json:"artworks"`
	TotalCount  int             `json:"totalCount"`
	LastUpdated *time.Time      `json:"lastUpdated"`
}

func (c Catalog) MarshalJSON() ([]byte, error) {
	alias := catalogAlias{
		Artworks:    c.Artworks,
		TotalCount:  c.TotalCount,
		LastUpdated: c.LastUpdated,
	}
	if alias.Artworks == nil {
		alias.Artworks = []ArtworkRecord{}
	}
	data, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	return appendExtra(data, c.Extra, catalogKeys)
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	var raw struct {
		Artworks    []json.RawMessage `json:"artworks"`
		TotalCount  int               `json:"totalCount"`
		LastUpdated *string           `json:"lastUpdated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra, err := collectExtra(data, catalogKeys)
	if err != nil {
		return err
	}

	c.Artworks = make([]ArtworkRecord, 0, len(raw.Artworks))
	c.Malformed = 0
	for _, entry := range raw.Artworks {
		a, err := DecodeArtwork(entry)
		if err != nil {
			c.Malformed++
		}
		c.Artworks = append(c.Artworks, a)
	}
	c.TotalCount = raw.TotalCount
	c.LastUpdated = nil
	c.Extra = extra

	if raw.LastUpdated != nil && *raw.LastUpdated != "" {
		ts, err := parseTimestamp(*raw.LastUpdated)
		if err != nil {
			return fmt.Errorf("lastUpdated: %w", err)
		}
		c.LastUpdated = &ts
	}
	return nil
}

// parseTimestamp accepts RFC 3339 timestamps and bare calendar dates, both of
// which have been written to the catalog over time.
func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	return time.Parse(DateLayout, s)
}
