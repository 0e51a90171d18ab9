package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/depari/srules/internal"
	"github.com/depari/srules/internal/history"
	"github.com/depari/srules/internal/index"
	"github.com/depari/srules/internal/mcpserver"
	"github.com/depari/srules/internal/parser"
	"github.com/depari/srules/internal/rules"
	"github.com/depari/srules/internal/ruleservice"
	"github.com/depari/srules/internal/search"
	"github.com/depari/srules/internal/storage"
	pkgconfig "github.com/depari/srules/pkg/config"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// buildIndex regenerates the search index artifact from the corpus.
func buildIndex(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	items, err := search.BuildIndex(store)
	if err != nil {
		return fmt.Errorf("build search index: %w", err)
	}
	if err := search.WriteIndexFile(cfg.Assets.SearchIndexPath(), items); err != nil {
		return fmt.Errorf("write search index: %w", err)
	}

	fmt.Fprintf(os.Stdout, "indexed %d rules -> %s\n", len(items), cfg.Assets.SearchIndexPath())
	return nil
}

// buildHistory regenerates the per-rule commit history artifact from git.
func buildHistory(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	store, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	hist, err := history.Build(ctx, cfg.Corpus.Path, store, logger)
	if err != nil {
		return fmt.Errorf("build history: %w", err)
	}

	histPath := filepath.Join(cfg.Assets.Dir, history.HistoryFileName)
	if err := history.WriteHistoryFile(histPath, hist); err != nil {
		return fmt.Errorf("write history: %w", err)
	}

	fmt.Fprintf(os.Stdout, "history for %d rules -> %s\n", len(hist), histPath)
	return nil
}

// validateCorpus parses and validates every rule document, reporting
// failures per file.
func validateCorpus(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	metas, err := store.List("")
	if err != nil {
		return fmt.Errorf("list corpus: %w", err)
	}

	var bad int
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			fmt.Fprintf(os.Stdout, "FAIL %s: %v\n", m.Path, err)
			bad++
			continue
		}
		res, err := parser.Parse(data, m.Path)
		if err != nil {
			fmt.Fprintf(os.Stdout, "FAIL %s: %v\n", m.Path, err)
			bad++
			continue
		}
		if err := rules.ValidateDocument(res); err != nil {
			fmt.Fprintf(os.Stdout, "FAIL %s: %v\n", m.Path, err)
			bad++
			continue
		}
		fmt.Fprintf(os.Stdout, "ok   %s\n", m.Path)
	}

	fmt.Fprintf(os.Stdout, "%d rules checked, %d invalid\n", len(metas), bad)
	if bad > 0 {
		return fmt.Errorf("%d invalid rule documents", bad)
	}
	return nil
}

// serveMCP exposes the archive over the Model Context Protocol on stdio.
func serveMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Stdout carries the MCP stream, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	store, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc, err := ruleservice.New(store, db, cfg.Corpus.CacheSize, logger)
	if err != nil {
		return fmt.Errorf("init rule service: %w", err)
	}

	var searcher search.Searcher
	if cfg.Search.Provider == search.ProviderFTS {
		searcher = search.NewFTS(db)
	} else {
		items, err := search.BuildIndex(store)
		if err != nil {
			return fmt.Errorf("build search index: %w", err)
		}
		searcher = search.NewFuzzy(items, cfg.Search.MinScore)
	}

	return mcpserver.New(svc, searcher).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "srules",
		Usage:  "Coding rule archive with fuzzy search, favorites, and GitHub-backed submissions",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the archive HTTP server",
				Action: serve,
			},
			{
				Name:   "index",
				Usage:  "Rebuild the search index artifact",
				Action: buildIndex,
			},
			{
				Name:   "history",
				Usage:  "Rebuild the rule commit history artifact from git",
				Action: buildHistory,
			},
			{
				Name:   "validate",
				Usage:  "Validate every rule document in the corpus",
				Action: validateCorpus,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the archive over the Model Context Protocol on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
