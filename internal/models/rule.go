// Package models defines the domain types for the rule archive.
package models

import "time"

// Difficulty levels a rule may declare.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// RuleFrontmatter is the typed YAML metadata block at the top of a rule file.
type RuleFrontmatter struct {
	Title      string   `yaml:"title" json:"title"`
	Slug       string   `yaml:"slug" json:"slug"`
	Version    string   `yaml:"version" json:"version"`
	Created    string   `yaml:"created" json:"created"`
	Updated    string   `yaml:"updated,omitempty" json:"updated,omitempty"`
	Author     string   `yaml:"author,omitempty" json:"author,omitempty"`
	Email      string   `yaml:"email,omitempty" json:"email,omitempty"`
	Tags       []string `yaml:"tags" json:"tags"`
	Category   []string `yaml:"category" json:"category"`
	Difficulty string   `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	Featured   bool     `yaml:"featured,omitempty" json:"featured,omitempty"`
}

// Rule is a fully parsed rule document.
type Rule struct {
	RuleFrontmatter
	Content  string `json:"content"`
	Excerpt  string `json:"excerpt"`
	FilePath string `json:"-"` // source location, build-time only
}

// RuleListItem is a lightweight representation returned by list operations.
type RuleListItem struct {
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Excerpt    string   `json:"excerpt"`
	Tags       []string `json:"tags"`
	Category   []string `json:"category"`
	Author     string   `json:"author,omitempty"`
	Created    string   `json:"created"`
	Difficulty string   `json:"difficulty,omitempty"`
	Featured   bool     `json:"featured,omitempty"`
}

// SearchIndexItem is the reduced projection of a Rule delivered to search
// clients as a flat JSON array. Treated as immutable once built.
type SearchIndexItem struct {
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Category []string `json:"category"`
	Tags     []string `json:"tags"`
	Author   string   `json:"author,omitempty"`
	Excerpt  string   `json:"excerpt"`
	Path     string   `json:"path"`
}

// FavoriteItem is a bookmarked rule, keyed by slug. At most one entry per slug.
type FavoriteItem struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Author     string   `json:"author,omitempty"`
	Created    string   `json:"created"`
	Difficulty string   `json:"difficulty,omitempty"`
	Category   []string `json:"category"`
	Tags       []string `json:"tags"`
}

// RecentViewItem records a rule-page visit. Lists are most-recent-first and
// capped, with re-visits moved to the front.
type RecentViewItem struct {
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	ViewedAt time.Time `json:"viewedAt"`
}

// CommitRecord is one version-control history entry for a rule file.
type CommitRecord struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// CategoryInfo aggregates rule counts per category.
type CategoryInfo struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// RuleMetadata is the file-level view returned by storage listings.
type RuleMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
