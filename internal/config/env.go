package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) applyEnv() error {
	setString(&c.Storage.Backend, "GALLERY_STORAGE_BACKEND")
	setString(&c.Storage.Endpoint, "GALLERY_S3_ENDPOINT")
	setString(&c.Storage.Region, "AWS_REGION", "GALLERY_S3_REGION")
	setString(&c.Storage.Bucket, "GALLERY_S3_BUCKET")
	setString(&c.Storage.AccessKey, "GALLERY_S3_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "GALLERY_S3_SECRET_KEY")
	setString(&c.Storage.PublicBase, "GALLERY_PUBLIC_BASE")
	setString(&c.Storage.LocalDir, "GALLERY_LOCAL_DIR")
	setString(&c.Catalog.Path, "GALLERY_CATALOG_PATH")
	setString(&c.Caption.Provider, "CAPTION_PROVIDER")
	setString(&c.Caption.Model, "CAPTION_MODEL")

	if err := setBool(&c.Storage.Insecure, "GALLERY_S3_INSECURE"); err != nil {
		return err
	}
	if err := setBool(&c.Storage.CreateBucket, "GALLERY_S3_CREATE_BUCKET"); err != nil {
		return err
	}

	ints := []struct {
		dst *int
		key string
	}{
		{&c.Image.ThumbnailQuality, "GALLERY_THUMBNAIL_QUALITY"},
		{&c.Image.WebPQuality, "GALLERY_WEBP_QUALITY"},
		{&c.Image.ResponsiveQuality, "GALLERY_RESPONSIVE_QUALITY"},
		{&c.Catalog.CheckpointInterval, "GALLERY_CHECKPOINT_INTERVAL"},
	}
	for _, i := range ints {
		if err := setInt(i.dst, i.key); err != nil {
			return err
		}
	}

	if v, ok := os.LookupEnv("GALLERY_RESPONSIVE_WIDTHS"); ok && v != "" {
		widths, err := parseWidths(v)
		if err != nil {
			return fmt.Errorf("parse GALLERY_RESPONSIVE_WIDTHS: %w", err)
		}
		c.Image.ResponsiveWidths = widths
	}
	return nil
}

// setString takes the last non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
}

func setBool(dst *bool, key string) error {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

func setInt(dst *int, key string) error {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = i
	}
	return nil
}

// parseWidths parses a comma separated list such as "640,1024,1920".
func parseWidths(s string) ([]int, error) {
	var widths []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("invalid width %q", part)
		}
		widths = append(widths, w)
	}
	return widths, nil
}
