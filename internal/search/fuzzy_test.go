package search

import (
	"testing"

	"github.com/depari/srules/internal/models"
)

func fixtureItems() []models.SearchIndexItem {
	return []models.SearchIndexItem{
		{
			Title:    "TypeScript Strict Mode Rules",
			Slug:     "typescript-strict-mode",
			Category: []string{"Frontend"},
			Tags:     []string{"typescript", "lint"},
			Author:   "kim",
			Excerpt:  "Enable strict compiler options for safer code.",
			Path:     "frontend/typescript-strict.md",
		},
		{
			Title:    "Go Error Handling",
			Slug:     "go-error-handling",
			Category: []string{"Backend"},
			Tags:     []string{"go", "errors"},
			Author:   "lee",
			Excerpt:  "Wrap errors with context and check with errors.Is.",
			Path:     "backend/go-errors.md",
		},
		{
			Title:    "REST API Naming",
			Slug:     "rest-api-naming",
			Category: []string{"Backend"},
			Tags:     []string{"http", "api"},
			Author:   "park",
			Excerpt:  "Plural nouns, no verbs in paths.",
			Path:     "backend/rest-naming.md",
		},
	}
}

func TestFuzzy_EmptyQuery(t *testing.T) {
	f := NewFuzzy(fixtureItems(), 0)
	results, err := f.Search("   ", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("empty query: got %v, want empty non-nil slice", results)
	}
}

func TestFuzzy_NoMatch(t *testing.T) {
	f := NewFuzzy(fixtureItems(), 0)
	results, err := f.Search("zzz-nonexistent", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no hits, got %+v", results)
	}
}

func TestFuzzy_TypoStillMatches(t *testing.T) {
	f := NewFuzzy(fixtureItems(), 0)
	// Dropped letter: "TypeScrpt" is still a subsequence of "TypeScript".
	results, err := f.Search("TypeScrpt", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.Slug == "typescript-strict-mode" {
			return
		}
	}
	t.Errorf("typo query missed typescript rule: %+v", results)
}

func TestFuzzy_TitleOutranksExcerpt(t *testing.T) {
	items := []models.SearchIndexItem{
		{Title: "Caching Strategies", Slug: "title-hit", Excerpt: "nothing relevant"},
		{Title: "Unrelated", Slug: "excerpt-hit", Excerpt: "caching mentioned in passing"},
	}
	f := NewFuzzy(items, 0)
	results, err := f.Search("caching", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) < 2 {
		t.Fatalf("expected both items to match, got %+v", results)
	}
	if results[0].Slug != "title-hit" {
		t.Errorf("first hit = %q, want title-hit", results[0].Slug)
	}
}

func TestFuzzy_LimitApplied(t *testing.T) {
	items := make([]models.SearchIndexItem, 10)
	for i := range items {
		items[i] = models.SearchIndexItem{Title: "shared prefix rule", Slug: string(rune('a'+i)) + "-rule"}
	}
	f := NewFuzzy(items, 0)
	results, err := f.Search("shared", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("len = %d, want 5", len(results))
	}
}

func TestFuzzy_MinScoreFiltersWeakHits(t *testing.T) {
	f := NewFuzzy(fixtureItems(), 1e9)
	results, _ := f.Search("typescript", 5)
	if len(results) != 0 {
		t.Errorf("floor should drop everything, got %+v", results)
	}
}

func TestFuzzy_Reload(t *testing.T) {
	f := NewFuzzy(fixtureItems(), 0)
	f.Reload([]models.SearchIndexItem{{Title: "Only One", Slug: "only-one"}})
	if f.Len() != 1 {
		t.Fatalf("Len = %d, want 1", f.Len())
	}
	results, _ := f.Search("only", 5)
	if len(results) != 1 || results[0].Slug != "only-one" {
		t.Errorf("post-reload search = %+v", results)
	}
}
