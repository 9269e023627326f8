// Package storage publishes rendition bytes to object storage under a
// deterministic key layout and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/pixelvision/gallery/internal/config"
)

// CacheImmutable is sent with every upload; published renditions never change.
const CacheImmutable = "public, max-age=31536000, immutable"

// Kind is the top-level prefix of an object key.
type Kind string

const (
	KindOriginal   Kind = "originals"
	KindThumbnail  Kind = "thumbnails"
	KindWebP       Kind = "webp"
	KindResponsive Kind = "responsive"
)

// Store uploads bytes under a key. Implementations perform no retries.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType, cacheControl string) (string, error)
	PublicURL(key string) string
}

// TransferError reports a failed upload.
type TransferError struct {
	Key string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("failed to upload %s: %v", e.Key, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Key builds <kind>/<year>/<MM>/<name>.<ext>. A positive width appends the
// _<width>w suffix used by responsive renditions.
func Key(kind Kind, year, month int, name string, width int, ext string) string {
	if width > 0 {
		name = fmt.Sprintf("%s_%dw", name, width)
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return fmt.Sprintf("%s/%d/%02d/%s.%s", kind, year, month, name, ext)
}

// OriginalKey is where the unmodified upload lives.
func OriginalKey(year, month int, id, ext string) string {
	return Key(KindOriginal, year, month, id, 0, ext)
}

// ThumbnailKey keeps the _thumb suffix already present in published catalogs.
func ThumbnailKey(year, month int, id string) string {
	return Key(KindThumbnail, year, month, id+"_thumb", 0, "jpg")
}

func WebPKey(year, month int, id string) string {
	return Key(KindWebP, year, month, id, 0, "webp")
}

func ResponsiveKey(year, month int, id string, width int) string {
	return Key(KindResponsive, year, month, id, width, "jpg")
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// ContentTypeForExt maps a file extension to its MIME type, falling back to
// application/octet-stream.
func ContentTypeForExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ct, ok := imageTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "filesystem":
		return NewFilesystemStore(cfg.LocalDir, cfg.PublicBase)
	case "s3", "":
		return NewMinioStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
