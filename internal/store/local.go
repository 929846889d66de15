package store

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalPhotoStore keeps photo files in a flat directory on disk.
type LocalPhotoStore struct {
	dir string
}

func NewLocalPhotoStore(dir string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalPhotoStore{dir: dir}, nil
}

// resolve rejects anything that would escape the upload directory.
func (s *LocalPhotoStore) resolve(filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}

// Save writes the full content before returning; a failed copy removes the
// partial file so a note record never ends up pointing at one.
func (s *LocalPhotoStore) Save(_ context.Context, filename string, r io.Reader, _ int64, _ string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create photo file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write photo file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close photo file: %w", err)
	}
	return nil
}

func (s *LocalPhotoStore) Open(_ context.Context, filename string) (io.ReadCloser, string, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

func (s *LocalPhotoStore) Remove(_ context.Context, filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
