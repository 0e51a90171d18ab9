//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS rules_fts USING fts5(
			slug UNINDEXED,
			title,
			body,
			tags,
			category,
			excerpt,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, slug, title, body string, tags, category []string, excerpt string) error {
	_, _ = tx.Exec(`DELETE FROM rules_fts WHERE slug = ?`, slug)
	_, err := tx.Exec(`INSERT INTO rules_fts (slug, title, body, tags, category, excerpt) VALUES (?, ?, ?, ?, ?, ?)`,
		slug, title, body, strings.Join(tags, " "), strings.Join(category, " "), excerpt)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, slug string) {
	_, _ = tx.Exec(`DELETE FROM rules_fts WHERE slug = ?`, slug)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT slug,
		       title,
		       snippet(rules_fts, 2, '<b>', '</b>', '...', 64)
		FROM rules_fts
		WHERE rules_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
