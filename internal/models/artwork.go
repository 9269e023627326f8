package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Dimensions is the pixel size of an original image
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ArtworkRecord describes one published artwork and its renditions.
//
// Fields the gallery does not know about are kept in Extra and written back
// unchanged, so older or newer tooling can share the same catalog document.
type ArtworkRecord struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        string         `json:"date"`
	Year        int            `json:"year"`
	Month       int            `json:"month"`
	Original    string         `json:"original"`
	Thumbnail   string         `json:"thumbnail"`
	WebFormat   string         `json:"webp,omitempty"`
	Responsive  map[int]string `json:"responsive"`
	Dimensions  Dimensions     `json:"dimensions"`
	FileSize    int64          `json:"fileSize"`

	Extra map[string]any `json:"-"`
	// Raw holds an entry that could not be decoded as an artwork. It is
	// written back byte for byte and the record has no id.
	Raw json.RawMessage `json:"-"`
}

var artworkKeys = map[string]struct{}{
	"id": {}, "title": {}, "description": {}, "date": {}, "year": {}, "month": {},
	"original": {}, "thumbnail": {}, "webp": {}, "responsive": {}, "dimensions": {},
	"fileSize": {},
}

// Malformed reports whether the entry failed to decode and is kept only as Raw
func (a *ArtworkRecord) Malformed() bool {
	return a.Raw != nil
}

// HasResponsive reports whether at least one responsive width was published
func (a *ArtworkRecord) HasResponsive() bool {
	return len(a.Responsive) > 0
}

// Clone returns a deep copy safe to hand out of the catalog store
func (a ArtworkRecord) Clone() ArtworkRecord {
	out := a
	if a.Responsive != nil {
		out.Responsive = make(map[int]string, len(a.Responsive))
		for w, u := range a.Responsive {
			out.Responsive[w] = u
		}
	}
	if a.Extra != nil {
		out.Extra = make(map[string]any, len(a.Extra))
		for k, v := range a.Extra {
			out.Extra[k] = v
		}
	}
	if a.Raw != nil {
		out.Raw = append(json.RawMessage(nil), a.Raw...)
	}
	return out
}

// ResponsiveWidths returns the published widths in ascending order
func (a *ArtworkRecord) ResponsiveWidths() []int {
	widths := make([]int, 0, len(a.Responsive))
	for w := range a.Responsive {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	return widths
}

type artworkAlias ArtworkRecord

func (a ArtworkRecord) MarshalJSON() ([]byte, error) {
	if a.Raw != nil {
		return a.Raw, nil
	}
	alias := artworkAlias(a)
	if alias.Responsive == nil {
		alias.Responsive = map[int]string{}
	}
	data, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	return appendExtra(data, a.Extra, artworkKeys)
}

func (a *ArtworkRecord) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("artwork entry is not an object: %.40s", trimmed)
	}
	var alias artworkAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	extra, err := collectExtra(data, artworkKeys)
	if err != nil {
		return err
	}
	alias.Extra = extra
	*a = ArtworkRecord(alias)
	return nil
}

// DecodeArtwork decodes one catalog entry. An entry that is not a valid
// artwork object comes back as a malformed record holding the original bytes,
// together with the decode error.
func DecodeArtwork(data json.RawMessage) (ArtworkRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		trimmed = []byte("null")
	}

	var a ArtworkRecord
	if err := a.UnmarshalJSON(trimmed); err != nil {
		return ArtworkRecord{Raw: append(json.RawMessage(nil), trimmed...)}, err
	}
	return a, nil
}

// collectExtra returns every top-level key of an object that is not in known
func collectExtra(data []byte, known map[string]struct{}) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var extra map[string]any
	for k, v := range raw {
		if _, ok := known[k]; ok {
			continue
		}
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = value
	}
	return extra, nil
}

// appendExtra splices extra keys into an encoded JSON object, after the known
// fields and in sorted order. Keys shadowing known fields are dropped.
func appendExtra(obj []byte, extra map[string]any, known map[string]struct{}) ([]byte, error) {
	if len(extra) == 0 {
		return obj, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if _, ok := known[k]; ok {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return obj, nil
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	trimmed := bytes.TrimRight(obj, " \n")
	buf.Write(trimmed[:len(trimmed)-1])
	for i, k := range keys {
		if i > 0 || len(trimmed) > 2 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(extra[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DateLayout is the format of ArtworkRecord.Date
const DateLayout = "2006-01-02"

// SetDate fills date, year and month from t
func (a *ArtworkRecord) SetDate(t time.Time) {
	a.Date = t.Format(DateLayout)
	a.Year = t.Year()
	a.Month = int(t.Month())
}

// ParsedDate returns the attributed date, falling back to year/month when the
// date string is absent or malformed.
func (a *ArtworkRecord) ParsedDate() (time.Time, bool) {
	if t, err := time.Parse(DateLayout, a.Date); err == nil {
		return t, true
	}
	if a.Year > 0 && a.Month >= 1 && a.Month <= 12 {
		return time.Date(a.Year, time.Month(a.Month), 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
