package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/parser"
	"github.com/depari/srules/internal/storage"
)

// IndexFileName is the artifact consumed by search clients.
const IndexFileName = "search-index.json"

// BuildIndex walks the corpus and produces the flat search index, sorted by
// slug for stable output. Files that fail to parse are skipped.
func BuildIndex(store storage.Provider) ([]models.SearchIndexItem, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("search: list corpus: %w", err)
	}

	items := make([]models.SearchIndexItem, 0, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			continue
		}
		res, err := parser.Parse(data, m.Path)
		if err != nil {
			continue
		}
		fm := res.Frontmatter
		items = append(items, models.SearchIndexItem{
			Title:    fm.Title,
			Slug:     fm.Slug,
			Category: fm.Category,
			Tags:     fm.Tags,
			Author:   fm.Author,
			Excerpt:  res.Excerpt,
			Path:     m.Path,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Slug < items[j].Slug })
	return items, nil
}

// WriteIndexFile serializes items to path atomically (temp file then rename).
func WriteIndexFile(path string, items []models.SearchIndexItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("search: marshal index: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("search: ensure dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".search-index-*")
	if err != nil {
		return fmt.Errorf("search: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("search: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("search: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("search: rename: %w", err)
	}
	return nil
}
