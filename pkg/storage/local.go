package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalUploader writes files under dir. They are served at {publicBase}/uploads/{name}.
type LocalUploader struct {
	dir        string
	publicBase string
}

func NewLocalUploader(dir, publicBase string) *LocalUploader {
	return &LocalUploader{dir: dir, publicBase: publicBase}
}

// Dir is the directory served under /uploads.
func (u *LocalUploader) Dir() string { return u.dir }

func (u *LocalUploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object name")
	}

	if err := os.MkdirAll(u.dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create upload folder: %w", err)
	}

	path := filepath.Join(u.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	return fmt.Sprintf("%s/uploads/%s", u.publicBase, name), nil
}
