// Package cache provides a file-backed typed cache. Each namespace is
// one JSON file under the cache directory; unreadable or corrupt files
// are treated as a miss, never as an error the caller must handle.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Cache is a typed handle to a single namespace.
type Cache[T any] struct {
	path string
}

// New returns a cache handle for the given namespace under dir.
func New[T any](dir, namespace string) *Cache[T] {
	return &Cache[T]{path: filepath.Join(dir, filename(namespace))}
}

// Path returns the backing file location.
func (c *Cache[T]) Path() string { return c.path }

// Load reads the cached value. It reports false on a missing, corrupt,
// or unmarshalable entry.
func (c *Cache[T]) Load() (T, bool) {
	var v T
	data, err := os.ReadFile(c.path)
	if err != nil {
		return v, false
	}
	if !gjson.ValidBytes(data) {
		slog.Warn("Discarding corrupt cache entry", "path", c.path)
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("Discarding unreadable cache entry", "path", c.path, "error", err)
		return v, false
	}
	return v, true
}

// Save writes the value atomically, replacing any previous entry.
func (c *Cache[T]) Save(v T) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".cache-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache entry: %w", err)
	}
	return nil
}

// Remove deletes the cached entry, if any.
func (c *Cache[T]) Remove() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func filename(namespace string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, namespace)
	return s + ".json"
}
