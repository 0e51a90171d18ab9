// Package recent tracks recently viewed rules with move-to-front,
// capacity-bounded eviction semantics.
package recent

import (
	"log/slog"
	"time"

	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/prefstore"
)

// StoreKey is the preference-store key holding the recent-views list.
const StoreKey = "recent_views"

// DefaultMaxItems bounds the list length.
const DefaultMaxItems = 10

// Notify is called after every successful mutation.
type Notify func()

// Service maintains the most-recent-first view history. There is no
// time-based expiry: only capacity-bounded eviction of the oldest entries.
type Service struct {
	store    *prefstore.ArrayStore[models.RecentViewItem]
	maxItems int
	notify   Notify
	now      func() time.Time
}

// NewService creates a recent-views service. maxItems <= 0 selects the
// default cap; notify may be nil.
func NewService(store prefstore.Store, maxItems int, notify Notify) *Service {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Service{
		store:    prefstore.NewArrayStore[models.RecentViewItem](store, StoreKey),
		maxItems: maxItems,
		notify:   notify,
		now:      time.Now,
	}
}

// GetRecentViews returns views most-recent-first.
func (s *Service) GetRecentViews() []models.RecentViewItem {
	return s.store.GetAll()
}

// AddRecentView records a visit to slug: any existing entry for the slug is
// removed, a fresh entry is placed at the front, and the list is truncated
// to the configured maximum with the oldest entries dropped first.
func (s *Service) AddRecentView(slug, title string) {
	items := s.store.GetAll()

	kept := make([]models.RecentViewItem, 0, len(items)+1)
	kept = append(kept, models.RecentViewItem{
		Slug:     slug,
		Title:    title,
		ViewedAt: s.now().UTC(),
	})
	for _, it := range items {
		if it.Slug != slug {
			kept = append(kept, it)
		}
	}
	if len(kept) > s.maxItems {
		kept = kept[:s.maxItems]
	}

	if err := s.store.SetAll(kept); err != nil {
		slog.Warn("recent: save failed", slog.String("slug", slug), slog.String("error", err.Error()))
	}
	s.broadcast()
}

// RemoveRecentView deletes the entry for slug, reporting whether one existed.
func (s *Service) RemoveRecentView(slug string) bool {
	removed, err := s.store.Remove(func(v models.RecentViewItem) bool { return v.Slug == slug })
	if err != nil {
		slog.Warn("recent: remove failed", slog.String("slug", slug), slog.String("error", err.Error()))
	}
	if removed {
		s.broadcast()
	}
	return removed
}

// ClearRecentViews removes the whole history.
func (s *Service) ClearRecentViews() {
	if err := s.store.Clear(); err != nil {
		slog.Warn("recent: clear failed", slog.String("error", err.Error()))
	}
	s.broadcast()
}

func (s *Service) broadcast() {
	if s.notify != nil {
		s.notify()
	}
}
