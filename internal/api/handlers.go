package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/depari/srules/internal/apperr"
	"github.com/depari/srules/internal/favorites"
	"github.com/depari/srules/internal/github"
	"github.com/depari/srules/internal/history"
	"github.com/depari/srules/internal/index"
	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/recent"
	"github.com/depari/srules/internal/ruleservice"
	"github.com/depari/srules/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc         *ruleservice.Service
	searcher    search.Searcher
	favorites   *favorites.Service
	recent      *recent.Service
	submitter   *github.Submitter
	historyPath string
}

// NewHandler creates a new Handler. submitter may be nil when the GitHub
// integration is not configured; historyPath may be empty when no history
// artifact has been built.
func NewHandler(svc *ruleservice.Service, searcher search.Searcher, favs *favorites.Service, rec *recent.Service, submitter *github.Submitter, historyPath string) *Handler {
	return &Handler{
		svc:         svc,
		searcher:    searcher,
		favorites:   favs,
		recent:      rec,
		submitter:   submitter,
		historyPath: historyPath,
	}
}

// ListRules handles GET /api/rules.
//
//	@Summary		List rules with optional pagination and filtering
//	@Tags			rules
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			category	query		string	false	"Filter by category"
//	@Param			difficulty	query		string	false	"Filter by difficulty"	Enums(beginner, intermediate, advanced)
//	@Param			featured	query		bool	false	"Only featured rules"
//	@Param			sort		query		string	false	"Sort field"	Enums(created, title, slug, updated_at)
//	@Success		200			{object}	RuleListResponse
//	@Security		BearerAuth
//	@Router			/rules [get]
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := index.ListOptions{
		Tag:        q.Get("tag"),
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Sort:       q.Get("sort"),
	}
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))
	opts.Offset, _ = strconv.Atoi(q.Get("offset"))
	if v := q.Get("featured"); v != "" {
		featured := v == "true" || v == "1"
		opts.Featured = &featured
	}

	items, total, err := h.svc.ListRules(r.Context(), opts)
	if err != nil {
		slog.Error("list rules failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RuleListResponse{Rules: items, Total: total})
}

// GetRule handles GET /api/rules/{slug}.
//
//	@Summary		Get a single rule by slug
//	@Tags			rules
//	@Produce		json
//	@Param			slug	path		string	true	"Rule slug"
//	@Success		200		{object}	models.Rule
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rules/{slug} [get]
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	rule, err := h.svc.GetRule(r.Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get rule failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// Featured handles GET /api/rules/featured.
//
//	@Summary		List featured rules, newest first
//	@Tags			rules
//	@Produce		json
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	RuleListResponse
//	@Security		BearerAuth
//	@Router			/rules/featured [get]
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.Featured(r.Context(), limit)
	if err != nil {
		slog.Error("featured rules failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RuleListResponse{Rules: items, Total: len(items)})
}

// Categories handles GET /api/categories.
//
//	@Summary		List categories with rule counts
//	@Tags			rules
//	@Produce		json
//	@Success		200	{object}	CategoriesResponse
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		slog.Error("categories failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}

// RecordView handles POST /api/rules/{slug}/view. It pushes the rule onto
// the recent-views list.
//
//	@Summary		Record a rule page view
//	@Tags			rules
//	@Param			slug	path	string	true	"Rule slug"
//	@Success		204		"View recorded"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rules/{slug}/view [post]
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	rule, err := h.svc.GetRule(r.Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("record view failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	h.recent.AddRecentView(slug, rule.Title)
	w.WriteHeader(http.StatusNoContent)
}

// RuleHistory handles GET /api/rules/{slug}/history.
//
//	@Summary		Get the commit timeline of a rule
//	@Tags			rules
//	@Produce		json
//	@Param			slug	path		string	true	"Rule slug"
//	@Success		200		{object}	HistoryResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rules/{slug}/history [get]
func (h *Handler) RuleHistory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, err := h.svc.GetRule(r.Context(), slug); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("history lookup failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	commits := []models.CommitRecord{}
	if h.historyPath != "" {
		hist, err := history.LoadHistoryFile(h.historyPath)
		if err == nil {
			if c, ok := hist[slug]; ok {
				commits = c
			}
		}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Commits: commits})
}

// Search handles GET /api/search.
//
//	@Summary		Search rules
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.searcher.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ListFavorites handles GET /api/favorites.
//
//	@Summary		List bookmarked rules
//	@Tags			favorites
//	@Produce		json
//	@Success		200	{object}	FavoritesResponse
//	@Security		BearerAuth
//	@Router			/favorites [get]
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FavoritesResponse{Favorites: h.favorites.GetFavorites()})
}

// ToggleFavorite handles POST /api/favorites.
//
//	@Summary		Toggle a rule bookmark
//	@Tags			favorites
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.FavoriteItem	true	"Rule to toggle"
//	@Success		200		{object}	ToggleFavoriteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/favorites [post]
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var item models.FavoriteItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if item.Slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	added := h.favorites.ToggleFavorite(item)
	writeJSON(w, http.StatusOK, ToggleFavoriteResponse{Favorited: added})
}

// ClearFavorites handles DELETE /api/favorites.
//
//	@Summary		Remove all bookmarks
//	@Tags			favorites
//	@Success		204	"Favorites cleared"
//	@Security		BearerAuth
//	@Router			/favorites [delete]
func (h *Handler) ClearFavorites(w http.ResponseWriter, r *http.Request) {
	h.favorites.ClearFavorites()
	w.WriteHeader(http.StatusNoContent)
}

// ListRecent handles GET /api/recent.
//
//	@Summary		List recently viewed rules, most recent first
//	@Tags			recent
//	@Produce		json
//	@Success		200	{object}	RecentResponse
//	@Security		BearerAuth
//	@Router			/recent [get]
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RecentResponse{Recent: h.recent.GetRecentViews()})
}

// RemoveRecent handles DELETE /api/recent/{slug}.
//
//	@Summary		Remove one entry from the recent-views list
//	@Tags			recent
//	@Param			slug	path	string	true	"Rule slug"
//	@Success		204		"Entry removed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recent/{slug} [delete]
func (h *Handler) RemoveRecent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !h.recent.RemoveRecentView(slug) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearRecent handles DELETE /api/recent.
//
//	@Summary		Clear the recent-views list
//	@Tags			recent
//	@Success		204	"List cleared"
//	@Security		BearerAuth
//	@Router			/recent [delete]
func (h *Handler) ClearRecent(w http.ResponseWriter, r *http.Request) {
	h.recent.ClearRecentViews()
	w.WriteHeader(http.StatusNoContent)
}

// SubmitRule handles POST /api/submissions.
//
//	@Summary		Propose a new rule as a pull request
//	@Tags			submissions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		github.Submission	true	"Rule proposal"
//	@Success		201		{object}	SubmissionResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/submissions [post]
func (h *Handler) SubmitRule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var sub github.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if h.submitter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("submissions are not configured"))
		return
	}

	prURL, err := h.submitter.SubmitRule(r.Context(), sub)
	if err != nil {
		h.submissionError(w, err, func() string {
			return h.submitter.IssueURL("Rule proposal: "+sub.Title, sub.Content)
		})
		return
	}
	writeJSON(w, http.StatusCreated, SubmissionResponse{PRURL: prURL})
}

// UpdateSubmission handles PUT /api/submissions/{slug}.
//
//	@Summary		Propose an update to an existing rule
//	@Tags			submissions
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string			true	"Rule slug"
//	@Param			body	body		github.Update	true	"Updated content and reason"
//	@Success		201		{object}	SubmissionResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/submissions/{slug} [put]
func (h *Handler) UpdateSubmission(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var up github.Update
	if err := json.NewDecoder(r.Body).Decode(&up); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	up.Slug = chi.URLParam(r, "slug")
	if h.submitter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("submissions are not configured"))
		return
	}

	prURL, err := h.submitter.UpdateRule(r.Context(), up)
	if err != nil {
		h.submissionError(w, err, func() string {
			return h.submitter.IssueURL("Rule update: "+up.Slug, up.Reason)
		})
		return
	}
	writeJSON(w, http.StatusCreated, SubmissionResponse{PRURL: prURL})
}

// DeleteSubmission handles DELETE /api/submissions/{slug}.
//
//	@Summary		Propose removal of an existing rule
//	@Tags			submissions
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string			true	"Rule slug"
//	@Param			body	body		github.Removal	true	"Removal reason"
//	@Success		201		{object}	SubmissionResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/submissions/{slug} [delete]
func (h *Handler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var rm github.Removal
	if err := json.NewDecoder(r.Body).Decode(&rm); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rm.Slug = chi.URLParam(r, "slug")
	if h.submitter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("submissions are not configured"))
		return
	}

	prURL, err := h.submitter.DeleteRule(r.Context(), rm)
	if err != nil {
		h.submissionError(w, err, func() string {
			return h.submitter.IssueURL("Rule removal: "+rm.Slug, rm.Reason)
		})
		return
	}
	writeJSON(w, http.StatusCreated, SubmissionResponse{PRURL: prURL})
}

// submissionError maps workflow failures to HTTP responses. A missing
// credential degrades to the manual issue link rather than an error.
func (h *Handler) submissionError(w http.ResponseWriter, err error, issueURL func() string) {
	var apiErr *github.APIError
	switch {
	case errors.Is(err, apperr.ErrNoCredential):
		writeJSON(w, http.StatusOK, SubmissionResponse{IssueURL: issueURL()})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, github.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.As(err, &apiErr):
		if apiErr.RateLimited() {
			writeJSON(w, http.StatusTooManyRequests, errorBody("github rate limit exceeded"))
			return
		}
		slog.Error("github api failed", slog.Int("status", apiErr.StatusCode), slog.String("error", apiErr.Message))
		writeJSON(w, http.StatusBadGateway, errorBody("github error"))
	default:
		slog.Error("submission failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
