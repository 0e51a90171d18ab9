// Package history derives per-rule commit timelines from the corpus git
// repository and publishes them as a static JSON artifact.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/parser"
	"github.com/depari/srules/internal/storage"
)

// HistoryFileName is the artifact consumed by rule detail pages.
const HistoryFileName = "rule-history.json"

const logFormat = "%H|%an|%ad|%s"

// Build runs git log for every rule file and returns slug → commits,
// newest first. Files outside git history get an empty timeline.
func Build(ctx context.Context, corpusRoot string, store storage.Provider, logger *slog.Logger) (map[string][]models.CommitRecord, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("history: list corpus: %w", err)
	}

	out := make(map[string][]models.CommitRecord, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			continue
		}
		res, err := parser.Parse(data, m.Path)
		if err != nil {
			continue
		}
		slug := res.Frontmatter.Slug

		commits, err := fileLog(ctx, corpusRoot, m.Path)
		if err != nil {
			logger.Warn("history: git log failed",
				slog.String("path", m.Path),
				slog.String("error", err.Error()))
			commits = []models.CommitRecord{}
		}
		out[slug] = commits
	}
	return out, nil
}

// fileLog returns the commit timeline for one file, following renames.
func fileLog(ctx context.Context, corpusRoot, path string) ([]models.CommitRecord, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", corpusRoot,
		"log", "--follow", "--pretty=format:"+logFormat, "--date=short", "--", path)
	raw, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("history: git log %s: %w", path, err)
	}

	var commits []models.CommitRecord
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		commits = append(commits, models.CommitRecord{
			Hash:    parts[0],
			Author:  parts[1],
			Date:    parts[2],
			Message: parts[3],
		})
	}
	if commits == nil {
		commits = []models.CommitRecord{}
	}
	return commits, nil
}

// WriteHistoryFile serializes the timeline map to path atomically.
func WriteHistoryFile(path string, hist map[string][]models.CommitRecord) error {
	data, err := json.MarshalIndent(hist, "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("history: ensure dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rule-history-*")
	if err != nil {
		return fmt.Errorf("history: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("history: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("history: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("history: rename: %w", err)
	}
	return nil
}

// LoadHistoryFile reads a timeline map written by WriteHistoryFile.
func LoadHistoryFile(path string) (map[string][]models.CommitRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var hist map[string][]models.CommitRecord
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, err
	}
	return hist, nil
}
