// Package search provides query strategies over the rule corpus: an
// in-memory fuzzy matcher fed by the prebuilt search index, and a SQLite
// full-text fallback. The strategy is chosen once at startup.
package search

import (
	"time"

	"github.com/depari/srules/internal/models"
)

// Provider names accepted by the configuration.
const (
	ProviderFuzzy = "fuzzy"
	ProviderFTS   = "fts"
)

const (
	// DefaultInlineLimit caps the quick-result dropdown.
	DefaultInlineLimit = 5
	// DefaultDebounce is how long to wait after the last keystroke before
	// a query runs.
	DefaultDebounce = 300 * time.Millisecond
)

// Result is one search hit. Score is only meaningful within a single query.
type Result struct {
	models.SearchIndexItem
	Score   float64 `json:"score,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
}

// Searcher is the query interface shared by all strategies.
type Searcher interface {
	// Search returns up to limit hits for query, best first. An empty or
	// whitespace-only query yields an empty, non-nil slice.
	Search(query string, limit int) ([]Result, error)
}
