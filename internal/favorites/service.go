// Package favorites manages the user's bookmarked rules on top of the
// preference store.
package favorites

import (
	"log/slog"

	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/prefstore"
)

// StoreKey is the preference-store key holding the favorites list.
const StoreKey = "favorites"

// Notify is called after every successful mutation so other surfaces
// (SSE clients, badge counts) can refresh without coupling to this package.
type Notify func(count int)

// Service implements toggle/list/clear over an ArrayStore.
//
// Storage failures are logged and swallowed: favorites are a convenience
// feature and must never surface error state to the caller.
type Service struct {
	store  *prefstore.ArrayStore[models.FavoriteItem]
	notify Notify
}

// NewService creates a favorites service. notify may be nil.
func NewService(store prefstore.Store, notify Notify) *Service {
	return &Service{
		store:  prefstore.NewArrayStore[models.FavoriteItem](store, StoreKey),
		notify: notify,
	}
}

// GetFavorites returns all favorites in insertion order.
func (s *Service) GetFavorites() []models.FavoriteItem {
	return s.store.GetAll()
}

// IsFavorite reports whether slug is currently bookmarked.
func (s *Service) IsFavorite(slug string) bool {
	return s.store.Exists(func(f models.FavoriteItem) bool { return f.Slug == slug })
}

// ToggleFavorite adds item when its slug is absent and removes every entry
// for the slug when present. It returns true if the item was just added,
// false if just removed.
func (s *Service) ToggleFavorite(item models.FavoriteItem) bool {
	added := false
	if s.IsFavorite(item.Slug) {
		if _, err := s.store.Remove(func(f models.FavoriteItem) bool { return f.Slug == item.Slug }); err != nil {
			slog.Warn("favorites: remove failed", slog.String("slug", item.Slug), slog.String("error", err.Error()))
		}
	} else {
		if err := s.store.Add(item); err != nil {
			slog.Warn("favorites: add failed", slog.String("slug", item.Slug), slog.String("error", err.Error()))
		}
		added = true
	}
	s.broadcast()
	return added
}

// ClearFavorites removes every favorite.
func (s *Service) ClearFavorites() {
	if err := s.store.Clear(); err != nil {
		slog.Warn("favorites: clear failed", slog.String("error", err.Error()))
	}
	s.broadcast()
}

func (s *Service) broadcast() {
	if s.notify != nil {
		s.notify(len(s.store.GetAll()))
	}
}
