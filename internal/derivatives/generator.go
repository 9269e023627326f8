// Package derivatives renders the display renditions of an artwork. Every
// function here is a pure transform from a decoded image to encoded bytes.
package derivatives

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sort"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pixelvision/gallery/internal/config"
)

var (
	ErrEmptyImage       = errors.New("image data is empty")
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
)

// Content types of the encoded renditions.
const (
	ThumbnailContentType  = "image/jpeg"
	WebFormatContentType  = "image/webp"
	ResponsiveContentType = "image/jpeg"
)

// Decode parses an encoded image, applying any EXIF orientation, and returns
// it together with the registered format name ("jpeg", "png", ...).
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: zero dimensions", ErrUnsupportedImage)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, format, nil
}

// Generator produces renditions with the sizes and qualities it was built with.
type Generator struct {
	thumbnailSize     int
	thumbnailQuality  int
	webpQuality       int
	responsiveQuality int
	widths            []int
}

// New returns a Generator for cfg. Zero values fall back to the defaults.
func New(cfg config.ImageConfig) *Generator {
	g := &Generator{
		thumbnailSize:     cfg.ThumbnailSize,
		thumbnailQuality:  cfg.ThumbnailQuality,
		webpQuality:       cfg.WebPQuality,
		responsiveQuality: cfg.ResponsiveQuality,
		widths:            append([]int(nil), cfg.ResponsiveWidths...),
	}
	if g.thumbnailSize <= 0 {
		g.thumbnailSize = 300
	}
	if g.thumbnailQuality <= 0 {
		g.thumbnailQuality = 85
	}
	if g.webpQuality <= 0 {
		g.webpQuality = 80
	}
	if g.responsiveQuality <= 0 {
		g.responsiveQuality = g.thumbnailQuality
	}
	if len(g.widths) == 0 {
		g.widths = append(g.widths, config.DefaultResponsiveWidths...)
	}
	sort.Ints(g.widths)
	return g
}

// Widths returns the configured responsive widths in ascending order
func (g *Generator) Widths() []int {
	return append([]int(nil), g.widths...)
}

// Thumbnail fits img inside the thumbnail box and encodes it as JPEG. Images
// already smaller than the box keep their size.
func (g *Generator) Thumbnail(img image.Image) ([]byte, error) {
	thumb := imaging.Fit(img, g.thumbnailSize, g.thumbnailSize, imaging.Lanczos)
	data, err := encodeJPEG(thumb, g.thumbnailQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return data, nil
}

// WebFormat re-encodes img as lossy WebP at full resolution.
func (g *Generator) WebFormat(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	opts := &webp.Options{Lossless: false, Quality: float32(g.webpQuality)}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// ResponsiveSet renders img at every configured width.
func (g *Generator) ResponsiveSet(img image.Image) map[int][]byte {
	return g.ResponsiveWidths(img, g.widths)
}

// ResponsiveWidths renders img at each of widths, smallest first. Widths wider
// than the source are omitted, and a width that fails to encode is logged and
// left out. The result may be empty.
func (g *Generator) ResponsiveWidths(img image.Image, widths []int) map[int][]byte {
	sorted := append([]int(nil), widths...)
	sort.Ints(sorted)

	srcWidth := img.Bounds().Dx()
	out := make(map[int][]byte, len(sorted))
	for _, w := range sorted {
		if w <= 0 || w > srcWidth {
			continue
		}
		if _, done := out[w]; done {
			continue
		}

		resized := imaging.Resize(img, w, 0, imaging.Lanczos)
		data, err := encodeJPEG(resized, g.responsiveQuality)
		if err != nil {
			slog.Warn("Failed to generate responsive width", "width", w, "error", err)
			continue
		}
		out[w] = data
	}
	return out
}

// encodeJPEG flattens transparency onto white before encoding, since JPEG has
// no alpha channel.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero dimensions", ErrUnsupportedImage)
	}
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
