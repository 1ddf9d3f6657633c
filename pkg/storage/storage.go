// Package storage uploads saree images and returns their public URLs.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Uploader stores one object and returns the URL it is publicly served from.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// ObjectName builds a collision free object name that keeps the original extension.
func ObjectName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
	default:
		ext = ".jpg"
	}
	return uuid.New().String() + ext
}
