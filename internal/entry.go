// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/depari/srules/internal/api"
	"github.com/depari/srules/internal/favorites"
	"github.com/depari/srules/internal/github"
	"github.com/depari/srules/internal/history"
	"github.com/depari/srules/internal/index"
	"github.com/depari/srules/internal/prefstore"
	"github.com/depari/srules/internal/recent"
	"github.com/depari/srules/internal/ruleservice"
	"github.com/depari/srules/internal/search"
	"github.com/depari/srules/internal/sse"
	"github.com/depari/srules/internal/storage"
)

// reindexQuiet is how long the watcher waits after the last corpus change
// before rebuilding the fuzzy search index.
const reindexQuiet = 500 * time.Millisecond

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("corpus_path", cfg.Corpus.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("search_provider", cfg.Search.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	for _, dir := range []string{cfg.Corpus.Path, cfg.Assets.Dir, cfg.Prefs.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Server-side preference stores back the favorites and recent-view
	// lists; mutations are pushed to clients over SSE.
	prefs, err := prefstore.NewFile(cfg.Prefs.Dir, "srules")
	if err != nil {
		return fmt.Errorf("init prefs: %w", err)
	}
	favSvc := favorites.NewService(prefs, func(count int) {
		broker.Publish(sse.Event{Type: sse.EventFavoritesUpdate, Data: map[string]int{"count": count}})
	})
	recSvc := recent.NewService(prefs, cfg.Prefs.RecentMax, func() {
		broker.Publish(sse.Event{Type: sse.EventRecentUpdate})
	})

	svc, err := ruleservice.New(store, db, cfg.Corpus.CacheSize, logger)
	if err != nil {
		return fmt.Errorf("init rule service: %w", err)
	}

	// Select the search strategy. The fuzzy provider keeps an in-memory
	// index that the watcher refreshes; FTS queries SQLite directly.
	var searcher search.Searcher
	var fz *search.Fuzzy
	switch cfg.Search.Provider {
	case search.ProviderFTS:
		searcher = search.NewFTS(db)
	default:
		items, err := search.BuildIndex(store)
		if err != nil {
			return fmt.Errorf("build search index: %w", err)
		}
		if err := search.WriteIndexFile(cfg.Assets.SearchIndexPath(), items); err != nil {
			logger.Warn("write search index artifact failed", slog.String("error", err.Error()))
		}
		fz = search.NewFuzzy(items, cfg.Search.MinScore)
		searcher = fz
	}

	// Build the commit history artifact. Failures degrade detail pages to
	// an empty timeline, so they only warn.
	historyPath := filepath.Join(cfg.Assets.Dir, history.HistoryFileName)
	if hist, err := history.Build(ctx, cfg.Corpus.Path, store, logger); err != nil {
		logger.Warn("build rule history failed", slog.String("error", err.Error()))
	} else if err := history.WriteHistoryFile(historyPath, hist); err != nil {
		logger.Warn("write rule history artifact failed", slog.String("error", err.Error()))
	}

	// GitHub submissions are optional; without a configured repository the
	// API reports the feature unavailable.
	var submitter *github.Submitter
	if cfg.GitHub.Enabled() {
		client := github.NewClient("", cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo)
		submitter = github.NewSubmitter(client, cfg.GitHub.BaseBranch, cfg.GitHub.ContentDir, logger)
		submitter.ResolvePath = db.PathForSlug
		logger.Info("GitHub submissions enabled",
			slog.String("repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo),
			slog.Bool("token_present", client.HasToken()))
	}

	// Build API handler and router.
	h := api.NewHandler(svc, searcher, favSvc, recSvc, submitter, historyPath)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Assets.Dir)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Corpus changes invalidate the parsed-rule cache, notify SSE clients
	// and, under the fuzzy provider, rebuild the search index after a
	// quiet period.
	reindex := search.NewDebouncer(reindexQuiet)
	defer reindex.Cancel()

	g.Go(func() error {
		return index.Watch(gCtx, db, store, cfg.Corpus.Path, logger, func(kind, slug string) {
			svc.Invalidate(slug)
			broker.PublishRuleEvent(kind, slug)
			if fz == nil {
				return
			}
			reindex.Debounce(func() {
				items, err := search.BuildIndex(store)
				if err != nil {
					logger.Warn("search index rebuild failed", slog.String("error", err.Error()))
					return
				}
				fz.Reload(items)
				if err := search.WriteIndexFile(cfg.Assets.SearchIndexPath(), items); err != nil {
					logger.Warn("write search index artifact failed", slog.String("error", err.Error()))
				}
			})
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
