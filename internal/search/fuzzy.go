package search

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/depari/srules/internal/models"
)

// Field weights. Title matches count double; author matches barely register.
const (
	weightTitle    = 2.0
	weightTags     = 1.5
	weightCategory = 1.5
	weightExcerpt  = 1.0
	weightAuthor   = 0.5
)

// Fuzzy matches queries against the in-memory search index using weighted
// per-field subsequence matching. Safe for concurrent use; Reload swaps the
// item set atomically.
type Fuzzy struct {
	mu       sync.RWMutex
	items    []models.SearchIndexItem
	minScore float64
}

// NewFuzzy builds a searcher over items. Hits scoring below minScore are
// dropped.
func NewFuzzy(items []models.SearchIndexItem, minScore float64) *Fuzzy {
	return &Fuzzy{items: items, minScore: minScore}
}

// NewFuzzyFromFile loads the JSON search index at path.
func NewFuzzyFromFile(path string, minScore float64) (*Fuzzy, error) {
	items, err := LoadIndexFile(path)
	if err != nil {
		return nil, err
	}
	return NewFuzzy(items, minScore), nil
}

// LoadIndexFile reads a search index written by WriteIndexFile.
func LoadIndexFile(path string) ([]models.SearchIndexItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []models.SearchIndexItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Reload replaces the item set. In-flight searches keep the old set.
func (f *Fuzzy) Reload(items []models.SearchIndexItem) {
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
}

// Len reports the number of indexed items.
func (f *Fuzzy) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// fieldSource adapts one field of the item set to the fuzzy matcher.
type fieldSource struct {
	items []models.SearchIndexItem
	get   func(models.SearchIndexItem) string
}

func (s fieldSource) String(i int) string { return s.get(s.items[i]) }
func (s fieldSource) Len() int            { return len(s.items) }

var fields = []struct {
	weight float64
	get    func(models.SearchIndexItem) string
}{
	{weightTitle, func(it models.SearchIndexItem) string { return it.Title }},
	{weightTags, func(it models.SearchIndexItem) string { return strings.Join(it.Tags, " ") }},
	{weightCategory, func(it models.SearchIndexItem) string { return strings.Join(it.Category, " ") }},
	{weightExcerpt, func(it models.SearchIndexItem) string { return it.Excerpt }},
	{weightAuthor, func(it models.SearchIndexItem) string { return it.Author }},
}

// Search implements Searcher. Per-field scores are weighted and summed per
// item, so a rule matching on both title and tags outranks one matching on
// a single field.
func (f *Fuzzy) Search(query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = DefaultInlineLimit
	}

	f.mu.RLock()
	items := f.items
	f.mu.RUnlock()

	scores := make(map[int]float64)
	for _, fld := range fields {
		for _, m := range fuzzy.FindFrom(query, fieldSource{items, fld.get}) {
			scores[m.Index] += float64(m.Score) * fld.weight
		}
	}

	results := make([]Result, 0, len(scores))
	for idx, score := range scores {
		if score < f.minScore {
			continue
		}
		results = append(results, Result{SearchIndexItem: items[idx], Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Slug < results[j].Slug
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
