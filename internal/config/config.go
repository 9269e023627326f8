// Package config loads gallery configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "config/config.yaml"

// DefaultResponsiveWidths are the widths generated for every artwork
var DefaultResponsiveWidths = []int{640, 768, 1024, 1280, 1536, 1920, 2560}

// StorageConfig describes where renditions are published.
type StorageConfig struct {
	Backend      string `yaml:"backend"` // "s3" or "filesystem"
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"` // empty: AWS env vars / shared credentials file
	SecretKey    string `yaml:"secret_key"`
	Insecure     bool   `yaml:"insecure"` // plain HTTP, e.g. a local MinIO
	PublicBase   string `yaml:"public_base"`
	CreateBucket bool   `yaml:"create_bucket"`
	LocalDir     string `yaml:"local_dir"` // filesystem backend root
}

// ImageConfig holds derivative sizes and encoder quality levels.
type ImageConfig struct {
	ThumbnailSize     int   `yaml:"thumbnail_size"`
	ThumbnailQuality  int   `yaml:"thumbnail_quality"`
	WebPQuality       int   `yaml:"webp_quality"`
	ResponsiveQuality int   `yaml:"responsive_quality"`
	ResponsiveWidths  []int `yaml:"responsive_widths"`
}

// CatalogConfig locates the catalog document.
type CatalogConfig struct {
	Path               string `yaml:"path"`
	CheckpointInterval int    `yaml:"checkpoint_interval"`
}

// CaptionConfig selects the optional description generator.
type CaptionConfig struct {
	Provider string `yaml:"provider"` // ollama, openai or gemini
	Model    string `yaml:"model"`
}

// Config is constructed once at startup and passed to every component.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Image   ImageConfig   `yaml:"image"`
	Catalog CatalogConfig `yaml:"catalog"`
	Caption CaptionConfig `yaml:"caption"`
}

// Load reads the YAML file at path (skipped when path is empty), overlays
// environment variables, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "s3"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "ap-northeast-1"
	}
	if c.Storage.Endpoint == "" {
		c.Storage.Endpoint = "s3." + c.Storage.Region + ".amazonaws.com"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "docs/media"
	}
	if c.Storage.PublicBase == "" {
		switch c.Storage.Backend {
		case "filesystem":
			c.Storage.PublicBase = "media"
		default:
			if c.Storage.Bucket != "" {
				c.Storage.PublicBase = "https://" + c.Storage.Bucket + "." + c.Storage.Endpoint
			}
		}
	}
	c.Storage.PublicBase = strings.TrimRight(c.Storage.PublicBase, "/")

	if c.Image.ThumbnailSize <= 0 {
		c.Image.ThumbnailSize = 300
	}
	if c.Image.ThumbnailQuality <= 0 {
		c.Image.ThumbnailQuality = 85
	}
	if c.Image.WebPQuality <= 0 {
		c.Image.WebPQuality = 80
	}
	if c.Image.ResponsiveQuality <= 0 {
		c.Image.ResponsiveQuality = c.Image.ThumbnailQuality
	}
	if len(c.Image.ResponsiveWidths) == 0 {
		c.Image.ResponsiveWidths = append([]int(nil), DefaultResponsiveWidths...)
	}
	sort.Ints(c.Image.ResponsiveWidths)

	if c.Catalog.Path == "" {
		c.Catalog.Path = "docs/data/artworks.json"
	}
	if c.Catalog.CheckpointInterval <= 0 {
		c.Catalog.CheckpointInterval = 10
	}
}

// Validate reports the first invalid setting. Settings only some commands
// need, such as the bucket, are checked by ValidateStorage.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "s3", "filesystem":
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	for name, q := range map[string]int{
		"image.thumbnail_quality":  c.Image.ThumbnailQuality,
		"image.webp_quality":       c.Image.WebPQuality,
		"image.responsive_quality": c.Image.ResponsiveQuality,
	} {
		if q < 1 || q > 100 {
			return fmt.Errorf("%s must be between 1 and 100, got %d", name, q)
		}
	}
	for _, w := range c.Image.ResponsiveWidths {
		if w <= 0 {
			return fmt.Errorf("image.responsive_widths must be positive, got %d", w)
		}
	}

	switch c.Caption.Provider {
	case "", "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported caption provider: %s", c.Caption.Provider)
	}
	return nil
}

// ValidateStorage checks the settings needed to publish renditions.
func (c *Config) ValidateStorage() error {
	if c.Storage.Backend == "s3" && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required for the s3 backend")
	}
	return nil
}
