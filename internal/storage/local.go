package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps files on the local filesystem; the server exposes
// baseDir under urlPrefix.
type LocalStorage struct {
	baseDir   string // e.g. "./uploads"
	urlPrefix string // e.g. "/uploads"
}

// NewLocalStorage creates a LocalStorage.
func NewLocalStorage(baseDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Dir returns the root directory.
func (s *LocalStorage) Dir() string { return s.baseDir }

func (s *LocalStorage) Save(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close: %w", err)
	}

	return s.urlPrefix + "/" + key, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	dest := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}

// KeyFromURL maps a URL returned by Save back to its key.
func (s *LocalStorage) KeyFromURL(url string) (string, bool) {
	prefix := s.urlPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
