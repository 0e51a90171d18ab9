package index

import (
	"log/slog"
	"time"

	"github.com/depari/srules/internal/checksum"
	"github.com/depari/srules/internal/parser"
	"github.com/depari/srules/internal/storage"
)

// Sync walks the corpus and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// A file whose slug is already claimed by a different path is skipped with a
// warning (first document wins).
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if _, err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if _, err := db.DeleteByPath(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data, upserts it into the DB and returns the rule slug.
func indexFile(db *DB, path string, data []byte) (string, error) {
	res, err := parser.Parse(data, path)
	if err != nil {
		return "", err
	}
	fm := res.Frontmatter
	return fm.Slug, db.UpsertRule(RuleRow{
		Slug:       fm.Slug,
		Path:       path,
		Title:      fm.Title,
		Author:     fm.Author,
		Checksum:   checksum.Sum(data),
		Tags:       fm.Tags,
		Category:   fm.Category,
		Difficulty: fm.Difficulty,
		Featured:   fm.Featured,
		Excerpt:    res.Excerpt,
		Created:    fm.Created,
		UpdatedAt:  time.Now(),
	}, res.Body)
}
