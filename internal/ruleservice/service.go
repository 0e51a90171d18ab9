// Package ruleservice coordinates the corpus, parser and SQLite index into
// the read API used by HTTP handlers and the MCP server.
package ruleservice

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/depari/srules/internal/index"
	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/parser"
	"github.com/depari/srules/internal/storage"
)

// DefaultCacheSize bounds the parsed-rule LRU.
const DefaultCacheSize = 128

// Service serves fully parsed rules. Reads go through an LRU keyed by slug;
// the watcher invalidates entries as files change on disk.
type Service struct {
	store  storage.Provider
	db     index.RuleIndex
	cache  *lru.Cache[string, *models.Rule]
	logger *slog.Logger
}

// New builds a Service. cacheSize <= 0 uses DefaultCacheSize.
func New(store storage.Provider, db index.RuleIndex, cacheSize int, logger *slog.Logger) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *models.Rule](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("ruleservice: create cache: %w", err)
	}
	return &Service{store: store, db: db, cache: cache, logger: logger}, nil
}

// GetRule returns the full parsed rule for slug, loading from disk on a
// cache miss. Returns apperr.ErrNotFound (wrapped) for unknown slugs.
func (s *Service) GetRule(_ context.Context, slug string) (*models.Rule, error) {
	if r, ok := s.cache.Get(slug); ok {
		return r, nil
	}

	path, err := s.db.PathForSlug(slug)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("ruleservice: read %s: %w", path, err)
	}
	res, err := parser.Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("ruleservice: parse %s: %w", path, err)
	}

	rule := &models.Rule{
		RuleFrontmatter: res.Frontmatter,
		Content:         res.Body,
		Excerpt:         res.Excerpt,
		FilePath:        path,
	}
	s.cache.Add(slug, rule)
	return rule, nil
}

// ListRules returns lightweight items plus the total matching the filters.
func (s *Service) ListRules(_ context.Context, opts index.ListOptions) ([]models.RuleListItem, int, error) {
	rows, total, err := s.db.ListRules(opts)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.RuleListItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, listItem(r))
	}
	return items, total, nil
}

// Featured returns featured rules, newest first.
func (s *Service) Featured(ctx context.Context, limit int) ([]models.RuleListItem, error) {
	featured := true
	items, _, err := s.ListRules(ctx, index.ListOptions{Featured: &featured, Limit: limit})
	return items, err
}

// Categories returns per-category rule counts, most populous first.
func (s *Service) Categories(_ context.Context) ([]models.CategoryInfo, error) {
	return s.db.Categories()
}

// Invalidate drops the cached rule for slug. Call on file change events.
func (s *Service) Invalidate(slug string) {
	if s.cache.Remove(slug) {
		s.logger.Debug("ruleservice: cache invalidated", slog.String("slug", slug))
	}
}

// InvalidateAll empties the cache.
func (s *Service) InvalidateAll() {
	s.cache.Purge()
}

func listItem(r index.RuleRow) models.RuleListItem {
	return models.RuleListItem{
		Title:      r.Title,
		Slug:       r.Slug,
		Excerpt:    r.Excerpt,
		Tags:       r.Tags,
		Category:   r.Category,
		Author:     r.Author,
		Created:    r.Created,
		Difficulty: r.Difficulty,
		Featured:   r.Featured,
	}
}
