package search

import (
	"github.com/depari/srules/internal/index"
	"github.com/depari/srules/internal/models"
)

// FTS answers queries from the SQLite index instead of the in-memory item
// set. Useful for large corpora where the full search index would be heavy
// to hold resident.
type FTS struct {
	db index.RuleIndex
}

// NewFTS wraps the SQLite index as a Searcher.
func NewFTS(db index.RuleIndex) *FTS {
	return &FTS{db: db}
}

// Search implements Searcher.
func (f *FTS) Search(query string, limit int) ([]Result, error) {
	if query == "" {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = DefaultInlineLimit
	}
	hits, err := f.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			SearchIndexItem: models.SearchIndexItem{Slug: h.Slug, Title: h.Title},
			Snippet:         h.Snippet,
		})
	}
	return results, nil
}
