package prefstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is a Store backed by one JSON file per key under a data directory.
// Keys are mapped to "<namespace>_<key>.json"; writes are atomic
// (temp file then rename) so a crash never leaves a torn value.
type File struct {
	dir       string
	namespace string
}

// NewFile creates a file-backed store rooted at dir, creating it if needed.
func NewFile(dir, namespace string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prefstore: mkdir %s: %w", dir, err)
	}
	return &File{dir: dir, namespace: namespace}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, f.namespace+"_"+key+".json")
}

// Get reads and unmarshals the value for key. Missing files and malformed
// JSON both read as absent.
func (f *File) Get(key string, out any) bool {
	raw, err := os.ReadFile(f.path(key))
	if err != nil {
		return false
	}
	return decode(raw, out)
}

// Set serializes value and writes it atomically.
func (f *File) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("prefstore: marshal %s: %w", key, err)
	}
	dest := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".pref-tmp-*")
	if err != nil {
		return fmt.Errorf("prefstore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("prefstore: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("prefstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("prefstore: rename: %w", err)
	}
	return nil
}

// Remove deletes the value for key. Missing keys are not an error.
func (f *File) Remove(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("prefstore: remove %s: %w", key, err)
	}
	return nil
}

// AllKeys lists every key stored under this namespace.
func (f *File) AllKeys() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("prefstore: read dir: %w", err)
	}
	prefix := f.namespace + "_"
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
	}
	return keys, nil
}
