package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FilesystemStore writes objects under a local directory, for galleries that
// serve their media next to the catalog and for development.
type FilesystemStore struct {
	baseDir    string
	publicBase string
}

// NewFilesystemStore creates baseDir if needed. publicBase prefixes returned
// URLs and may be relative, e.g. "media".
func NewFilesystemStore(baseDir, publicBase string) (*FilesystemStore, error) {
	if baseDir == "" {
		baseDir = "docs/media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &FilesystemStore{baseDir: baseDir, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Put writes data to <baseDir>/<key> via a temp file and rename.
func (s *FilesystemStore) Put(ctx context.Context, key string, data []byte, contentType, cacheControl string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransferError{Key: key, Err: err}
	}

	clean := path.Clean("/" + key)
	if clean == "/" || clean != "/"+key {
		return "", &TransferError{Key: key, Err: fmt.Errorf("invalid key")}
	}
	dest := s.localPath(key)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", &TransferError{Key: key, Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", &TransferError{Key: key, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", &TransferError{Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", &TransferError{Key: key, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return "", &TransferError{Key: key, Err: err}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", &TransferError{Key: key, Err: err}
	}
	return s.PublicURL(key), nil
}

func (s *FilesystemStore) PublicURL(key string) string {
	if s.publicBase == "" {
		return key
	}
	return s.publicBase + "/" + key
}

func (s *FilesystemStore) localPath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}
