package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/depari/srules/internal/apperr"
	"github.com/depari/srules/internal/models"
)

// RuleRow represents a row in the rules table.
type RuleRow struct {
	Slug       string
	Path       string
	Title      string
	Author     string
	Checksum   string
	Tags       []string
	Category   []string
	Difficulty string
	Featured   bool
	Excerpt    string
	Created    string
	UpdatedAt  time.Time
}

// SearchResult represents one full-text search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ListOptions filters and pages rule listings.
type ListOptions struct {
	Limit      int
	Offset     int
	Tag        string
	Category   string
	Difficulty string
	Featured   *bool
	Sort       string // created (default, newest first), title, slug, updated_at
}

// UpsertRule inserts or replaces a rule and its FTS entry within a transaction.
// A slug already claimed by a different file path is rejected with
// apperr.ErrConflict so the first document wins.
func (db *DB) UpsertRule(r RuleRow, body string) error {
	var existingPath string
	err := db.conn.QueryRow(`SELECT path FROM rules WHERE slug = ?`, r.Slug).Scan(&existingPath)
	if err == nil && existingPath != r.Path {
		return fmt.Errorf("index: slug %q already claimed by %s: %w", r.Slug, existingPath, apperr.ErrConflict)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("index: slug lookup: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(nonNil(r.Tags))
	categoryJSON, _ := json.Marshal(nonNil(r.Category))

	_, err = tx.Exec(`
		INSERT INTO rules (slug, path, title, author, checksum, tags, category,
		                   difficulty, featured, excerpt, body, created, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			path       = excluded.path,
			title      = excluded.title,
			author     = excluded.author,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			category   = excluded.category,
			difficulty = excluded.difficulty,
			featured   = excluded.featured,
			excerpt    = excluded.excerpt,
			body       = excluded.body,
			created    = excluded.created,
			updated_at = excluded.updated_at
	`, r.Slug, r.Path, r.Title, r.Author, r.Checksum, string(tagsJSON), string(categoryJSON),
		r.Difficulty, boolToInt(r.Featured), r.Excerpt, body, r.Created, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert rule: %w", err)
	}

	if err := ftsUpsert(tx, r.Slug, r.Title, body, r.Tags, r.Category, r.Excerpt); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteBySlug removes a rule and its FTS entry.
func (db *DB) DeleteBySlug(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	_, _ = tx.Exec(`DELETE FROM rules WHERE slug = ?`, slug)

	return tx.Commit()
}

// DeleteByPath removes the rule indexed from the given file path and returns
// its slug, or empty string if nothing was indexed for that path.
func (db *DB) DeleteByPath(path string) (string, error) {
	var slug string
	err := db.conn.QueryRow(`SELECT slug FROM rules WHERE path = ?`, path).Scan(&slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: slug for path: %w", err)
	}
	return slug, db.DeleteBySlug(slug)
}

// GetRule returns the indexed row for slug.
func (db *DB) GetRule(slug string) (*RuleRow, error) {
	row := db.conn.QueryRow(`
		SELECT slug, path, title, author, checksum, tags, category,
		       difficulty, featured, excerpt, created, updated_at
		FROM rules WHERE slug = ?
	`, slug)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get rule: %w", err)
	}
	return r, nil
}

// PathForSlug returns the corpus file path that slug was indexed from.
func (db *DB) PathForSlug(slug string) (string, error) {
	var path string
	err := db.conn.QueryRow(`SELECT path FROM rules WHERE slug = ?`, slug).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("index: path for slug: %w", err)
	}
	return path, nil
}

// GetChecksum returns the stored checksum for a file path, or empty string
// when the path is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM rules WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed rule.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM rules`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListRules returns filtered, paginated rules plus the total count matching
// the filters (ignoring limit/offset).
func (db *DB) ListRules(opts ListOptions) ([]RuleRow, int, error) {
	var conds []string
	var args []any

	if opts.Tag != "" {
		conds = append(conds, `tags LIKE ?`)
		args = append(args, jsonMember(opts.Tag))
	}
	if opts.Category != "" {
		conds = append(conds, `category LIKE ?`)
		args = append(args, jsonMember(opts.Category))
	}
	if opts.Difficulty != "" {
		conds = append(conds, `difficulty = ?`)
		args = append(args, opts.Difficulty)
	}
	if opts.Featured != nil {
		conds = append(conds, `featured = ?`)
		args = append(args, boolToInt(*opts.Featured))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM rules`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count rules: %w", err)
	}

	order := " ORDER BY created DESC, slug ASC"
	switch opts.Sort {
	case "title":
		order = " ORDER BY title ASC"
	case "slug":
		order = " ORDER BY slug ASC"
	case "updated_at":
		order = " ORDER BY updated_at DESC"
	}

	query := `
		SELECT slug, path, title, author, checksum, tags, category,
		       difficulty, featured, excerpt, created, updated_at
		FROM rules` + where + order
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, opts.Offset)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list rules: %w", err)
	}
	defer rows.Close()

	var out []RuleRow
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// Categories aggregates rule counts per category name, sorted by count
// descending then name.
func (db *DB) Categories() ([]models.CategoryInfo, error) {
	rows, err := db.conn.Query(`SELECT category FROM rules`)
	if err != nil {
		return nil, fmt.Errorf("index: categories: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var cats []string
		if json.Unmarshal([]byte(raw), &cats) != nil {
			continue
		}
		for _, c := range cats {
			counts[c]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.CategoryInfo, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.CategoryInfo{Name: name, Slug: slugifyCategory(name), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(s rowScanner) (*RuleRow, error) {
	var r RuleRow
	var tagsJSON, categoryJSON string
	var featured int
	if err := s.Scan(&r.Slug, &r.Path, &r.Title, &r.Author, &r.Checksum,
		&tagsJSON, &categoryJSON, &r.Difficulty, &featured,
		&r.Excerpt, &r.Created, &r.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
	_ = json.Unmarshal([]byte(categoryJSON), &r.Category)
	r.Featured = featured != 0
	return &r, nil
}

// jsonMember builds a LIKE pattern matching a quoted member of a stored
// JSON string array.
func jsonMember(v string) string {
	return `%"` + v + `"%`
}

func slugifyCategory(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
