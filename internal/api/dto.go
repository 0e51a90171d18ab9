package api

import (
	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/search"
)

// RuleListResponse wraps paginated rule listings.
type RuleListResponse struct {
	Rules []models.RuleListItem `json:"rules"`
	Total int                   `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// CategoriesResponse wraps the category aggregation.
type CategoriesResponse struct {
	Categories []models.CategoryInfo `json:"categories"`
}

// HistoryResponse wraps a rule's commit timeline.
type HistoryResponse struct {
	Commits []models.CommitRecord `json:"commits"`
}

// FavoritesResponse wraps the favorites list.
type FavoritesResponse struct {
	Favorites []models.FavoriteItem `json:"favorites"`
}

// ToggleFavoriteResponse reports the state after a toggle.
type ToggleFavoriteResponse struct {
	Favorited bool `json:"favorited"`
}

// RecentResponse wraps the recent-views list.
type RecentResponse struct {
	Recent []models.RecentViewItem `json:"recent"`
}

// SubmissionResponse carries the PR opened for a proposal, or the manual
// issue link when the server has no GitHub credential.
type SubmissionResponse struct {
	PRURL    string `json:"prUrl,omitempty"`
	IssueURL string `json:"issueUrl,omitempty"`
}
