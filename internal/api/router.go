package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// assetsDir, if non-empty, serves built artifacts (search index, rule
// history) under /assets/.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler, assetsDir string) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog.
	r.Get("/rules", h.ListRules)
	r.Get("/rules/featured", h.Featured)
	r.Get("/rules/{slug}", h.GetRule)
	r.Post("/rules/{slug}/view", h.RecordView)
	r.Get("/rules/{slug}/history", h.RuleHistory)
	r.Get("/categories", h.Categories)

	// Search.
	r.Get("/search", h.Search)

	// Favorites.
	r.Get("/favorites", h.ListFavorites)
	r.Post("/favorites/toggle", h.ToggleFavorite)
	r.Delete("/favorites", h.ClearFavorites)

	// Recent views.
	r.Get("/recent", h.ListRecent)
	r.Delete("/recent/{slug}", h.RemoveRecent)
	r.Delete("/recent", h.ClearRecent)

	// Submissions.
	r.Post("/submissions", h.SubmitRule)
	r.Put("/submissions/{slug}", h.UpdateSubmission)
	r.Delete("/submissions/{slug}", h.DeleteSubmission)

	// Built artifacts for static consumption.
	if assetsDir != "" {
		fs := http.StripPrefix("/assets/", http.FileServer(http.Dir(assetsDir)))
		r.Get("/assets/*", fs.ServeHTTP)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
