package index

import "github.com/depari/srules/internal/models"

// RuleIndex defines the interface for rule indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type RuleIndex interface {
	UpsertRule(r RuleRow, body string) error
	DeleteBySlug(slug string) error
	DeleteByPath(path string) (string, error)
	GetRule(slug string) (*RuleRow, error)
	PathForSlug(slug string) (string, error)
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListRules(opts ListOptions) ([]RuleRow, int, error)
	Categories() ([]models.CategoryInfo, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies RuleIndex at compile time.
var _ RuleIndex = (*DB)(nil)
