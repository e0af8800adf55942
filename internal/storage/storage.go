package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned for keys that are empty, absolute, or escape the store root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Storage saves uploaded files (catalog images, reply attachments) and
// returns the URL they are served at.
type Storage interface {
	// Save stores data under key, e.g. "gallery/<uuid>.jpg", and returns its public URL.
	Save(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)

	// Delete removes key. A missing file is not an error.
	Delete(ctx context.Context, key string) error
}

// NewKey returns "<prefix>/<uuid><ext>" where ext is taken from filename and lowercased.
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext)
}

// cleanKey validates key and returns it in slash form.
func cleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, `\`, "/")
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrInvalidKey
	}
	return c, nil
}
