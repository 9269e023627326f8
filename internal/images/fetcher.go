// Package images retrieves the bytes of published originals.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrNotFound means the location does not hold an image.
var ErrNotFound = errors.New("image not found")

// Fetcher reads originals from http(s) URLs, file:// URLs and local paths.
// Relative locations resolve against BaseDir, the directory the gallery is
// served from.
type Fetcher struct {
	HTTPClient *http.Client
	BaseDir    string
	// MaxBytes caps a single download; zero means no limit.
	MaxBytes int64
}

// NewFetcher creates a new image fetcher. Downloads have no overall deadline;
// they end when the context passed to Fetch is done.
func NewFetcher(baseDir string) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Transport: newTransport(),
		},
		BaseDir:  baseDir,
		MaxBytes: 512 << 20,
	}
}

// Fetch returns the bytes stored at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", ErrNotFound)
	}

	u, err := url.Parse(location)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return f.download(ctx, location)
		case "file":
			return f.readFile(u.Path)
		}
	}

	p := filepath.FromSlash(location)
	if !filepath.IsAbs(p) && f.BaseDir != "" {
		p = filepath.Join(f.BaseDir, p)
	}
	return f.readFile(p)
}

func (f *Fetcher) download(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("image exceeds %s", humanize.Bytes(uint64(f.MaxBytes)))
	}

	slog.Debug("Fetched original", "url", location, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// newTransport bounds connection setup only, so a large original on a slow
// link is never cut off mid-transfer.
func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}
